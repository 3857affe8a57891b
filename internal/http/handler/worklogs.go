package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"worklog/internal/auth"
	"worklog/internal/worklog"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WorklogHandler struct {
	Svc *worklog.Service
	Log *zap.Logger
}

type createTaskReq struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Create appends a task to the day's log and answers with the whole log. The
// new task's tags are filled in later by the enrichment worker.
func (h *WorklogHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Content == "" {
		http.Error(w, "date and content are required", http.StatusBadRequest)
		return
	}

	wl, err := h.Svc.AddTask(r.Context(), uid, req.Date, req.Content)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

type updateTaskReq struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *WorklogHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	logID, ok := logIDParam(w, r)
	if !ok {
		return
	}

	var req updateTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	wl, err := h.Svc.UpdateTask(r.Context(), uid, logID, chi.URLParam(r, "taskId"), req.Content, req.Tags)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *WorklogHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	logID, ok := logIDParam(w, r)
	if !ok {
		return
	}

	wl, logDeleted, err := h.Svc.DeleteTask(r.Context(), uid, logID, chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if logDeleted {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func logIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "logId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
