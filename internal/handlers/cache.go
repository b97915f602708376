package handlers

import (
	"net/http"

	"timer-stickers/internal/logging"
)

// GetCacheInfo reports the current cache footprint.
func (h *Handlers) GetCacheInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.cache.SizeInfo())
}

// ClearCache empties cache tiers. The optional tier query parameter
// limits the clear to "frames" or "clips"; by default both go.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	tier := r.URL.Query().Get("tier")
	switch tier {
	case "", "all":
		h.cache.Clear()
	case "frames":
		h.cache.ClearFrames()
	case "clips":
		h.cache.ClearClips()
	default:
		writeJSONError(w, "tier must be \"frames\", \"clips\" or \"all\"", http.StatusBadRequest)
		return
	}

	logging.Info("cache cleared (tier=%s)", orAll(tier))
	writeJSONStatus(w, "cleared")
}

func orAll(tier string) string {
	if tier == "" {
		return "all"
	}
	return tier
}
