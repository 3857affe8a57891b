package http

import (
	"net/http"

	"worklog/internal/auth"
	"worklog/internal/config"
	"worklog/internal/http/handler"
	mw "worklog/internal/http/middleware"
	"worklog/internal/report"
	"worklog/internal/worklog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps is everything the router hands to its handlers.
type Deps struct {
	Config  config.Config
	Log     *zap.Logger
	JWT     *auth.JWT
	Users   *auth.Users
	Logs    *worklog.Service
	Reports *report.Service
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLog(d.Log.Named("http")))
	r.Use(chimw.Recoverer)

	if len(d.Config.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(d.Config.CORSAllowedOrigins, d.Config.CORSAllowCredentials))
	}
	r.Use(mw.RateLimit(d.Config.RateLimit, d.Config.RateWindow))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{Users: d.Users, JWT: d.JWT, Log: d.Log}
	r.Post("/auth/signup", ah.Register)
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	logH := &handler.WorklogHandler{Svc: d.Logs, Log: d.Log}
	logRead := &handler.WorklogReadHandler{Svc: d.Logs, Log: d.Log}
	aiH := &handler.AIHandler{Reports: d.Reports, Log: d.Log}
	exportH := &handler.ExportHandler{Svc: d.Logs, Log: d.Log}

	r.Route("/worklogs", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", logH.Create)
		r.Get("/", logRead.List)

		r.Get("/date/{date}", logRead.ByDate)
		r.Get("/range", logRead.Range)
		r.Get("/search", logRead.Search)
		r.Get("/stats", logRead.Stats)

		r.Get("/summary", exportH.Summary)
		r.Get("/ai-summary", aiH.Summary)
		r.Post("/ai-summary", aiH.Summary)
		r.Get("/standup", aiH.Standup)

		r.Put("/task/{logId}/{taskId}", logH.UpdateTask)
		r.Delete("/task/{logId}/{taskId}", logH.DeleteTask)
	})

	tagH := &handler.TagHandler{Svc: d.Logs, Log: d.Log}
	r.Route("/tags", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/", tagH.List)
		r.Put("/rename", tagH.Rename)
		r.Delete("/{tag}", tagH.Delete)
	})

	return r
}
