package jobs

import (
	"encoding/json"
	"time"
)

const (
	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

// TypeTagEnrich derives tags for a freshly appended task.
const TypeTagEnrich = "TAG_ENRICH"

type Job struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Type    string `gorm:"type:text;not null"` // TAG_ENRICH
	Payload []byte `gorm:"not null"`

	RunAt  time.Time `gorm:"index:idx_jobs_due,priority:2;not null"`
	Status string    `gorm:"index:idx_jobs_due,priority:1;not null;default:'PENDING'"` // PENDING/RUNNING/DONE/FAILED

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:1"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"index"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TagEnrichPayload captures everything enrichment needs at submission time,
// so the handler never has to re-derive the parent log.
type TagEnrichPayload struct {
	TaskID    string `json:"task_id"`
	WorkLogID uint64 `json:"work_log_id"`
	Content   string `json:"content"`
}

// NewTagEnrichJob builds a single-attempt enrichment job due now.
func NewTagEnrichJob(userID uint64, p TagEnrichPayload) (Job, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return Job{}, err
	}
	now := time.Now().UTC()
	return Job{
		UserID:      userID,
		Type:        TypeTagEnrich,
		Payload:     payload,
		RunAt:       now,
		Status:      StatusPending,
		MaxAttempts: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
