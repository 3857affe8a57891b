package jobs

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler runs one claimed job. A returned error fails the job, or schedules a
// retry when the job has attempts left.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

type HandlerFunc func(ctx context.Context, job *Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *Job) error { return f(ctx, job) }

// Pool runs Size workers against the jobs table. Workers poll on Interval and
// also wake immediately when Wake is called after an enqueue.
type Pool struct {
	Repo     *Repo
	Handlers map[string]Handler
	Log      *zap.Logger
	Size     int
	Interval time.Duration

	wake chan struct{}
}

func NewPool(repo *Repo, log *zap.Logger, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		Repo:     repo,
		Handlers: map[string]Handler{},
		Log:      log,
		Size:     size,
		Interval: 800 * time.Millisecond,
		wake:     make(chan struct{}, size),
	}
}

func (p *Pool) Register(jobType string, h Handler) {
	p.Handlers[jobType] = h
}

// Wake nudges an idle worker without blocking.
func (p *Pool) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 1; i <= p.Size; i++ {
		w := &Worker{ID: fmt.Sprintf("worker-%d", i), pool: p}
		g.Go(func() error {
			w.Run(ctx)
			return nil
		})
	}
	return g.Wait()
}

type Worker struct {
	ID   string
	pool *Pool
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pool.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.pool.wake:
		}
		w.drain(ctx)
	}
}

// drain works through due jobs until none are left.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		job, err := w.pool.Repo.Claim(ctx, w.ID)
		if err != nil {
			if ctx.Err() == nil {
				w.pool.Log.Warn("worker claim error", zap.String("worker", w.ID), zap.Error(err))
			}
			return
		}
		if job == nil {
			return
		}
		w.handle(ctx, job)
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	log := w.pool.Log.With(
		zap.String("worker", w.ID),
		zap.Uint64("job_id", job.ID),
		zap.String("type", job.Type),
	)

	h, ok := w.pool.Handlers[job.Type]
	if !ok {
		log.Error("unknown job type")
		_ = w.pool.Repo.MarkFailed(ctx, job.ID, "unknown job type")
		return
	}

	start := time.Now()
	if err := safeHandle(ctx, h, job); err != nil {
		log.Warn("job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		w.retry(ctx, job, err.Error())
		return
	}

	if err := w.pool.Repo.MarkDone(ctx, job.ID); err != nil {
		log.Error("mark done", zap.Error(err))
		return
	}
	log.Debug("job done", zap.Duration("took", time.Since(start)))
}

func safeHandle(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, job)
}

func (w *Worker) retry(ctx context.Context, job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.pool.Repo.MarkFailed(ctx, job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.pool.Repo.RetryLater(ctx, job.ID, attempts, next, errMsg)
}
