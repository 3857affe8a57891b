package jobs

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

func (r *Repo) Enqueue(ctx context.Context, j *Job) error {
	return r.DB.WithContext(ctx).Create(j).Error
}

// Claim marks one due job RUNNING for workerID and returns it, or nil when
// nothing is due.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Job, error) {
	if r.DB.Dialector.Name() == "postgres" {
		return r.claimSkipLocked(ctx, workerID)
	}
	return r.claimSerial(ctx, workerID)
}

// FOR UPDATE SKIP LOCKED ensures no double-claim across workers and processes.
func (r *Repo) claimSkipLocked(ctx context.Context, workerID string) (*Job, error) {
	var job Job
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Raw(`
with cte as (
  select id
  from jobs
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status='RUNNING', locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID).Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

// SQLite serializes writers, so a guarded update inside a transaction is enough.
func (r *Repo) claimSerial(ctx context.Context, workerID string) (*Job, error) {
	var job Job
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var id uint64
		if err := tx.Model(&Job{}).
			Select("id").
			Where("status = ? AND run_at <= ?", StatusPending, now).
			Order("run_at asc, id asc").
			Limit(1).
			Scan(&id).Error; err != nil {
			return err
		}
		if id == 0 {
			return nil
		}

		res := tx.Model(&Job{}).
			Where("id = ? AND status = ?", id, StatusPending).
			Updates(map[string]any{
				"status":     StatusRunning,
				"locked_by":  workerID,
				"locked_at":  now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.First(&job, id).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":     StatusDone,
		"attempts":   gorm.Expr("attempts + 1"),
		"locked_by":  nil,
		"locked_at":  nil,
		"updated_at": time.Now().UTC(),
	}).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.DB.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":     StatusFailed,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": errMsg,
		"locked_by":  nil,
		"locked_at":  nil,
		"updated_at": time.Now().UTC(),
	}).Error
}

func (r *Repo) RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":     StatusPending,
		"attempts":   attempts,
		"run_at":     runAt.UTC(),
		"locked_by":  nil,
		"locked_at":  nil,
		"last_error": errMsg,
		"updated_at": time.Now().UTC(),
	}).Error
}

// RequeueStale returns RUNNING jobs locked before cutoff to PENDING when they
// have attempts left, and fails the rest. It reports both counts.
func (r *Repo) RequeueStale(ctx context.Context, cutoff time.Time) (requeued, failed int64, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		stale := tx.Model(&Job{}).Where("status = ? AND locked_at IS NOT NULL AND locked_at < ?", StatusRunning, cutoff.UTC())

		res := stale.Session(&gorm.Session{}).
			Where("attempts + 1 < max_attempts").
			Updates(map[string]any{
				"status":     StatusPending,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_by":  nil,
				"locked_at":  nil,
				"last_error": "worker lost",
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		requeued = res.RowsAffected

		res = stale.Session(&gorm.Session{}).
			Updates(map[string]any{
				"status":     StatusFailed,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_by":  nil,
				"locked_at":  nil,
				"last_error": "worker lost",
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		failed = res.RowsAffected
		return nil
	})
	return requeued, failed, err
}

// PurgeFinished deletes DONE and FAILED jobs last touched before cutoff.
func (r *Repo) PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []string{StatusDone, StatusFailed}, cutoff.UTC()).
		Delete(&Job{})
	return res.RowsAffected, res.Error
}

// Get loads a job by id.
func (r *Repo) Get(ctx context.Context, id uint64) (*Job, error) {
	var j Job
	err := r.DB.WithContext(ctx).First(&j, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}
