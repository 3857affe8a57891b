package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically recovers jobs abandoned by a dead worker and purges
// finished ones.
type Janitor struct {
	Repo       *Repo
	Log        *zap.Logger
	StaleAfter time.Duration
	Retention  time.Duration
}

func NewJanitor(repo *Repo, log *zap.Logger) *Janitor {
	return &Janitor{
		Repo:       repo,
		Log:        log,
		StaleAfter: 5 * time.Minute,
		Retention:  7 * 24 * time.Hour,
	}
}

func (j *Janitor) Sweep(ctx context.Context) error {
	now := time.Now()

	requeued, failed, err := j.Repo.RequeueStale(ctx, now.Add(-j.StaleAfter))
	if err != nil {
		return fmt.Errorf("requeue stale jobs: %w", err)
	}
	purged, err := j.Repo.PurgeFinished(ctx, now.Add(-j.Retention))
	if err != nil {
		return fmt.Errorf("purge jobs: %w", err)
	}

	if requeued+failed+purged > 0 {
		j.Log.Info("jobs swept",
			zap.Int64("requeued", requeued),
			zap.Int64("failed", failed),
			zap.Int64("purged", purged))
	}
	return nil
}

// Run schedules Sweep on spec (standard cron or @every) and blocks until ctx
// is cancelled.
func (j *Janitor) Run(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := j.Sweep(sweepCtx); err != nil && ctx.Err() == nil {
			j.Log.Warn("janitor sweep", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule janitor %q: %w", spec, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
