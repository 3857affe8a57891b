package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worklog/internal/ai"
	"worklog/internal/auth"
	"worklog/internal/config"
	"worklog/internal/db"
	"worklog/internal/enrich"
	httpx "worklog/internal/http"
	"worklog/internal/jobs"
	"worklog/internal/logging"
	"worklog/internal/report"
	"worklog/internal/worklog"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		return err
	}

	completer, err := ai.New(ctx, cfg.AI)
	if err != nil {
		return err
	}

	jobsRepo := &jobs.Repo{DB: gdb}
	pool := jobs.NewPool(jobsRepo, log.Named("jobs"), cfg.WorkerCount)

	logs := &worklog.Service{DB: gdb, Jobs: pool, Log: log.Named("worklog")}
	pool.Register(jobs.TypeTagEnrich, &enrich.Enricher{
		Tasks: logs,
		AI:    completer,
		Log:   log.Named("enrich"),
	})

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(httpx.Deps{
		Config:  cfg,
		Log:     log,
		JWT:     jwtSvc,
		Users:   &auth.Users{DB: gdb},
		Logs:    logs,
		Reports: &report.Service{Logs: logs, AI: completer, Log: log.Named("report")},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("ai_provider", cfg.AI.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return pool.Run(ctx)
	})
	g.Go(func() error {
		return jobs.NewJanitor(jobsRepo, log.Named("janitor")).Run(ctx, cfg.JanitorSchedule)
	})
	g.Go(func() error {
		// graceful shutdown
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("stopped")
	return err
}
