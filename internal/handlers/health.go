package handlers

import (
	"net/http"
	"runtime"
	"time"

	"timer-stickers/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	EncoderAvailable bool `json:"encoderAvailable"`

	CachedFrames int   `json:"cachedFrames"`
	CachedClips  int   `json:"cachedClips"`
	CacheBytes   int64 `json:"cacheBytes"`

	MemoryCurrentBytes int64   `json:"memoryCurrentBytes"`
	MemoryLimitBytes   int64   `json:"memoryLimitBytes"`
	MemoryUsage        float64 `json:"memoryUsage"`
	MemoryPaused       bool    `json:"memoryPaused"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service health. The service stays up without an
// encoder but answers degraded, since every generation will fail.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	info := h.cache.SizeInfo()
	encoderOK := h.caps.Has("libvpx-vp9") || h.caps.Has("libvpx") || h.caps.Has("qtrle")

	response := HealthResponse{
		Ready:            true,
		Version:          startup.Version,
		Uptime:           time.Since(h.started).Round(time.Second).String(),
		EncoderAvailable: encoderOK,
		CachedFrames:     info.FrameCount,
		CachedClips:      info.ClipCount,
		CacheBytes:       info.ApproxBytes,
		GoVersion:        runtime.Version(),
		NumCPU:           runtime.NumCPU(),
		NumGoroutine:     runtime.NumGoroutine(),
	}

	if h.mon != nil {
		current, limit, usage := h.mon.GetStats()
		response.MemoryCurrentBytes = current
		response.MemoryLimitBytes = limit
		response.MemoryUsage = usage
		response.MemoryPaused = h.mon.IsPaused()
	}

	if encoderOK {
		response.Status = statusHealthy
	} else {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}
