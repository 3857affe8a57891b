package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"worklog/internal/report"
	"worklog/internal/worklog"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, worklog.ErrInvalidDate):
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
	case errors.Is(err, worklog.ErrEmptyContent):
		http.Error(w, "content required", http.StatusBadRequest)
	case errors.Is(err, worklog.ErrInvalidTag):
		http.Error(w, "invalid tag", http.StatusBadRequest)
	case errors.Is(err, report.ErrInvalidRange):
		http.Error(w, "start must not be after end", http.StatusBadRequest)
	case errors.Is(err, worklog.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, report.ErrSummarizer):
		http.Error(w, "summarizer unavailable", http.StatusBadGateway)
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
