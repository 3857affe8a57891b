package worklog

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// WorkLog is one user's container of tasks for a single calendar day.
// Date is stored as YYYY-MM-DD; (user_id, date) is unique.
type WorkLog struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uq_work_logs_user_date" json:"user_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:uq_work_logs_user_date" json:"date"`
	Tasks     []Task    `gorm:"constraint:OnDelete:CASCADE" json:"tasks"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Task is a single logged item of work. ID is a UUID assigned at append time
// so the background tag patch can target it without knowing the parent log.
type Task struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	WorkLogID uint64    `gorm:"index;not null" json:"log_id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Position  int       `gorm:"not null" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      Tags      `gorm:"not null" json:"tags"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Tags is a text[] on Postgres and the same array literal in a text column
// everywhere else.
type Tags pq.StringArray

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src any) error {
	var a pq.StringArray
	if err := a.Scan(src); err != nil {
		return err
	}
	if a == nil {
		a = pq.StringArray{}
	}
	*t = Tags(a)
	return nil
}

// TaskHit is a search result row.
type TaskHit struct {
	ID        string    `json:"id"`
	LogID     uint64    `json:"log_id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	Tags      Tags      `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// DayStat is the per-day activity count used by the contribution heatmap.
type DayStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// TagCount is a tag and the number of tasks carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
