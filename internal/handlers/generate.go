package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"timer-stickers/internal/generator"
	"timer-stickers/internal/logging"
	"timer-stickers/internal/streaming"
)

// GenerateSticker produces the countdown clip for the duration in the
// path and streams it back. Concurrency is bounded; a saturated
// service answers 503 instead of queueing.
func (h *Handlers) GenerateSticker(w http.ResponseWriter, r *http.Request) {
	duration, err := strconv.Atoi(mux.Vars(r)["duration"])
	if err != nil {
		writeJSONError(w, "duration must be an integer number of seconds", http.StatusBadRequest)
		return
	}

	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		writeJSONError(w, "too many concurrent generations, try again shortly", http.StatusServiceUnavailable)
		return
	}

	result, err := h.gen.Generate(r.Context(), duration, nil)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}

	if result.Oversize {
		writeJSONError(w, "generated sticker exceeds the size limit, request a shorter duration",
			http.StatusRequestEntityTooLarge)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Generation-Source", result.Source)
	if err := streaming.ServeBlob(r.Context(), w, result.Blob, h.streamCfg); err != nil {
		logging.Warn("blob delivery for duration %d aborted: %v", duration, err)
	}
}

// writeGenerationError maps the orchestrator failure taxonomy to HTTP
// statuses, carrying the remediation hint to the client.
func (h *Handlers) writeGenerationError(w http.ResponseWriter, err error) {
	var genErr *generator.Error
	if !errors.As(err, &genErr) {
		writeJSONError(w, "generation failed", http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch genErr.Kind {
	case generator.KindInvalidDuration:
		status = http.StatusBadRequest
	case generator.KindMemory:
		status = http.StatusServiceUnavailable
	case generator.KindEncoderUnavailable:
		status = http.StatusNotImplemented
	case generator.KindRenderSurface, generator.KindInternal:
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, map[string]string{
		"error": "generation failed",
		"hint":  genErr.Hint,
	})
}
