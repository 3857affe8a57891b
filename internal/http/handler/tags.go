package handler

import (
	"encoding/json"
	"net/http"

	"worklog/internal/auth"
	"worklog/internal/worklog"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TagHandler struct {
	Svc *worklog.Service
	Log *zap.Logger
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	tags, err := h.Svc.TagCounts(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type renameTagReq struct {
	OldTag string `json:"old_tag"`
	NewTag string `json:"new_tag"`
}

func (h *TagHandler) Rename(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req renameTagReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.OldTag == "" || req.NewTag == "" {
		http.Error(w, "old_tag and new_tag are required", http.StatusBadRequest)
		return
	}

	n, err := h.Svc.RenameTag(r.Context(), uid, req.OldTag, req.NewTag)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	n, err := h.Svc.DeleteTag(r.Context(), uid, chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}
