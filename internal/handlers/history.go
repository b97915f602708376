package handlers

import (
	"net/http"
	"strconv"

	"timer-stickers/internal/history"
)

const maxHistoryLimit = 500

// GetHistory returns recent generation attempts, newest first. The
// limit query parameter caps the page size (default 50, max 500).
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeJSONError(w, "generation history is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.hist.Recent(r.Context(), limit)
	if err != nil {
		writeJSONError(w, "failed to read history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entries)
}

// GetHistoryStats returns aggregate generation statistics.
func (h *Handlers) GetHistoryStats(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeJSONError(w, "generation history is disabled", http.StatusNotFound)
		return
	}

	stats, err := h.hist.GetStats(r.Context())
	if err != nil {
		writeJSONError(w, "failed to aggregate history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
