package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"worklog/internal/auth"
	"worklog/internal/worklog"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	searchLimit      = 20
)

type WorklogReadHandler struct {
	Svc *worklog.Service
	Log *zap.Logger
	Now func() time.Time
}

// ByDate returns the day's log, or an empty task list when nothing was
// logged that day.
func (h *WorklogReadHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	wl, err := h.Svc.GetByDate(r.Context(), uid, chi.URLParam(r, "date"))
	if errors.Is(err, worklog.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"tasks": []worklog.Task{}})
		return
	}
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WorklogReadHandler) Range(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}

	logs, err := h.Svc.ListRange(r.Context(), uid, from, to)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilLogs(logs))
}

type pageDTO struct {
	Logs       []worklog.WorkLog `json:"logs"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

func (h *WorklogReadHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	page := 1
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	limit := defaultPageLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageLimit {
			limit = n
		}
	}

	logs, total, err := h.Svc.ListPage(r.Context(), uid, page, limit, strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, pageDTO{
		Logs:       nonNilLogs(logs),
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	})
}

func (h *WorklogReadHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	hits, err := h.Svc.Search(r.Context(), uid, q, searchLimit)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// Stats returns per-day activity for the current calendar year.
func (h *WorklogReadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	stats, err := h.Svc.Stats(r.Context(), uid, now().UTC().Year())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func nonNilLogs(logs []worklog.WorkLog) []worklog.WorkLog {
	if logs == nil {
		return []worklog.WorkLog{}
	}
	return logs
}
