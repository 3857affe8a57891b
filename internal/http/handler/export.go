package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"worklog/internal/auth"
	"worklog/internal/export"
	"worklog/internal/worklog"

	"go.uber.org/zap"
)

type ExportHandler struct {
	Svc *worklog.Service
	Log *zap.Logger
}

// Summary streams the user's logs as a spreadsheet, optionally limited to
// [start, end].
func (h *ExportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))

	logs, err := h.Svc.ListRange(r.Context(), uid, start, end)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	// render fully first so a failure can still become a 500
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, logs); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
