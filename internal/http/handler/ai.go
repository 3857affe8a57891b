package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"worklog/internal/auth"
	"worklog/internal/report"

	"go.uber.org/zap"
)

type AIHandler struct {
	Reports *report.Service
	Log     *zap.Logger
}

type summaryReq struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary accepts start/end from the query string, or from a JSON body on
// POST. Query values win when both are present.
func (h *AIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req summaryReq
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("start"); v != "" {
		req.Start = v
	}
	if v := r.URL.Query().Get("end"); v != "" {
		req.End = v
	}
	req.Start = strings.TrimSpace(req.Start)
	req.End = strings.TrimSpace(req.End)
	if req.Start == "" || req.End == "" {
		http.Error(w, "start and end dates are required", http.StatusBadRequest)
		return
	}

	summary, err := h.Reports.Summary(r.Context(), uid, req.Start, req.End)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *AIHandler) Standup(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	standup, err := h.Reports.Standup(r.Context(), uid)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"standup": standup})
}
