package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/framecache"
	"timer-stickers/internal/generator"
	"timer-stickers/internal/history"
	"timer-stickers/internal/streaming"
	"timer-stickers/internal/workers"
)

// Generator produces sticker clips. Satisfied by *generator.Orchestrator.
type Generator interface {
	Generate(ctx context.Context, duration int, onProgress encoder.ProgressFunc) (generator.Result, error)
}

// HistoryStore reads back recorded generations. Satisfied by
// *history.Store; may be nil when history is disabled.
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	GetStats(ctx context.Context) (history.Stats, error)
}

// MemoryStats reports live heap accounting. Satisfied by
// *memory.Monitor; may be nil when no monitor runs.
type MemoryStats interface {
	GetStats() (current, limit int64, usage float64)
	IsPaused() bool
}

// Handlers holds the API's collaborators.
type Handlers struct {
	gen       Generator
	cache     *framecache.Manager
	hist      HistoryStore
	caps      encoder.Capabilities
	mon       MemoryStats
	sem       chan struct{}
	streamCfg streaming.Config
	started   time.Time
}

// New creates the handler set. maxConcurrent bounds simultaneous
// generations; 0 sizes the bound from the available CPUs.
func New(gen Generator, cache *framecache.Manager, hist HistoryStore, caps encoder.Capabilities, mon MemoryStats, maxConcurrent int) *Handlers {
	if maxConcurrent <= 0 {
		maxConcurrent = workers.ForMixed(0)
	}
	return &Handlers{
		gen:       gen,
		cache:     cache,
		hist:      hist,
		caps:      caps,
		mon:       mon,
		sem:       make(chan struct{}, maxConcurrent),
		streamCfg: streaming.DefaultConfig(),
		started:   time.Now(),
	}
}

// Register wires every API route into the router.
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/api/generate/{duration}", h.GenerateSticker).Methods(http.MethodPost)
	router.HandleFunc("/api/cache", h.GetCacheInfo).Methods(http.MethodGet)
	router.HandleFunc("/api/cache", h.ClearCache).Methods(http.MethodDelete)
	router.HandleFunc("/api/history", h.GetHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/history/stats", h.GetHistoryStats).Methods(http.MethodGet)
	router.HandleFunc("/api/version", h.GetVersion).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
}
