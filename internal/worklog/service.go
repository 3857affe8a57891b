package worklog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"worklog/internal/jobs"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidDate  = errors.New("invalid date")
	ErrEmptyContent = errors.New("content required")
	ErrInvalidTag   = errors.New("invalid tag")
)

// Waker is poked after a commit that enqueued background work.
type Waker interface {
	Wake()
}

type Service struct {
	DB   *gorm.DB
	Jobs Waker
	Log  *zap.Logger
}

func orderTasks(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, created_at asc")
}

// AddTask upserts the day's log for the user, appends a task with empty tags
// and enqueues tag enrichment for it in the same transaction. It returns as
// soon as the append is committed.
func (s *Service) AddTask(ctx context.Context, userID uint64, date, content string) (*WorkLog, error) {
	day, err := ParseDay(date)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var wl WorkLog
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wl = WorkLog{UserID: userID, Date: FormatDay(day)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).Create(&wl).Error; err != nil {
			return fmt.Errorf("upsert work log: %w", err)
		}

		// serialize appends to the same day
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND date = ?", userID, wl.Date).
			First(&wl).Error; err != nil {
			return fmt.Errorf("load work log: %w", err)
		}

		var maxPos int
		if err := tx.Model(&Task{}).
			Where("work_log_id = ?", wl.ID).
			Select("coalesce(max(position), 0)").
			Scan(&maxPos).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		task := Task{
			ID:        uuid.NewString(),
			WorkLogID: wl.ID,
			UserID:    userID,
			Position:  maxPos + 1,
			Content:   content,
			Tags:      Tags{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("append task: %w", err)
		}
		if err := tx.Model(&WorkLog{}).Where("id = ?", wl.ID).Update("updated_at", now).Error; err != nil {
			return err
		}

		if err := tx.Preload("Tasks", orderTasks).First(&wl, wl.ID).Error; err != nil {
			return err
		}

		// enrichment targets the last element of the persisted list
		last := wl.Tasks[len(wl.Tasks)-1]
		j, err := jobs.NewTagEnrichJob(userID, jobs.TagEnrichPayload{
			TaskID:    last.ID,
			WorkLogID: wl.ID,
			Content:   last.Content,
		})
		if err != nil {
			return err
		}
		return tx.Create(&j).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Jobs != nil {
		s.Jobs.Wake()
	}
	return &wl, nil
}

// SetTaskTags replaces the tag set of a task located by id alone. Only the tags
// column is written. A task that no longer exists is not an error and is not
// recreated; the boolean reports whether a row was updated.
func (s *Service) SetTaskTags(ctx context.Context, taskID string, tags []string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Model(&Task{}).
		Where("id = ?", taskID).
		UpdateColumn("tags", Tags(tags))
	if res.Error != nil {
		return false, fmt.Errorf("patch task tags: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetByDate returns the user's log for a day, or ErrNotFound.
func (s *Service) GetByDate(ctx context.Context, userID uint64, date string) (*WorkLog, error) {
	day, err := ParseDay(date)
	if err != nil {
		return nil, err
	}
	var wl WorkLog
	err = s.DB.WithContext(ctx).
		Preload("Tasks", orderTasks).
		Where("user_id = ? AND date = ?", userID, FormatDay(day)).
		First(&wl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// LatestBefore returns the most recent log strictly before date.
func (s *Service) LatestBefore(ctx context.Context, userID uint64, date string) (*WorkLog, error) {
	var wl WorkLog
	err := s.DB.WithContext(ctx).
		Preload("Tasks", orderTasks).
		Where("user_id = ? AND date < ?", userID, date).
		Order("date desc").
		First(&wl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// ListRange returns logs with from <= date <= to in ascending date order.
// Empty bounds leave that side open.
func (s *Service) ListRange(ctx context.Context, userID uint64, from, to string) ([]WorkLog, error) {
	q := s.DB.WithContext(ctx).Preload("Tasks", orderTasks).Where("user_id = ?", userID)
	if from != "" {
		d, err := ParseDay(from)
		if err != nil {
			return nil, err
		}
		q = q.Where("date >= ?", FormatDay(d))
	}
	if to != "" {
		d, err := ParseDay(to)
		if err != nil {
			return nil, err
		}
		q = q.Where("date <= ?", FormatDay(d))
	}

	var logs []WorkLog
	if err := q.Order("date asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ListPage returns a newest-first page of logs plus the total log count.
// A non-empty date restricts the feed to logs on or before that day.
func (s *Service) ListPage(ctx context.Context, userID uint64, page, limit int, date string) ([]WorkLog, int64, error) {
	q := s.DB.WithContext(ctx).Model(&WorkLog{}).Where("user_id = ?", userID)
	if date != "" {
		d, err := ParseDay(date)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("date <= ?", FormatDay(d))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []WorkLog
	if err := q.Preload("Tasks", orderTasks).
		Order("date desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// UpdateTask edits a task's content, and its tags when tags is non-nil.
func (s *Service) UpdateTask(ctx context.Context, userID, logID uint64, taskID, content string, tags []string) (*WorkLog, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var wl WorkLog
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownedLog(tx, userID, logID, &wl); err != nil {
			return err
		}

		updates := map[string]any{
			"content":    content,
			"updated_at": time.Now().UTC(),
		}
		if tags != nil {
			updates["tags"] = Tags(NormalizeTags(tags))
		}
		res := tx.Model(&Task{}).Where("id = ? AND work_log_id = ?", taskID, logID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Preload("Tasks", orderTasks).First(&wl, logID).Error
	})
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// DeleteTask removes a task. When it was the log's last task the log is
// deleted too and (nil, true, nil) is returned.
func (s *Service) DeleteTask(ctx context.Context, userID, logID uint64, taskID string) (*WorkLog, bool, error) {
	var (
		wl         WorkLog
		logDeleted bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownedLog(tx, userID, logID, &wl); err != nil {
			return err
		}

		res := tx.Where("id = ? AND work_log_id = ?", taskID, logID).Delete(&Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var remaining int64
		if err := tx.Model(&Task{}).Where("work_log_id = ?", logID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			logDeleted = true
			return tx.Delete(&WorkLog{}, logID).Error
		}
		return tx.Preload("Tasks", orderTasks).First(&wl, logID).Error
	})
	if err != nil {
		return nil, false, err
	}
	if logDeleted {
		return nil, true, nil
	}
	return &wl, false, nil
}

func ownedLog(tx *gorm.DB, userID, logID uint64, out *WorkLog) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", logID, userID).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Search does a case-insensitive substring match over the user's task content.
func (s *Service) Search(ctx context.Context, userID uint64, q string, limit int) ([]TaskHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []TaskHit{}, nil
	}

	hits := []TaskHit{}
	err := s.DB.WithContext(ctx).
		Table("tasks").
		Select("tasks.id, tasks.work_log_id AS log_id, work_logs.date, tasks.content, tasks.tags, tasks.created_at").
		Joins("JOIN work_logs ON work_logs.id = tasks.work_log_id").
		Where("tasks.user_id = ?", userID).
		Where(`lower(tasks.content) LIKE ? ESCAPE '\'`, "%"+likeEscape(strings.ToLower(q))+"%").
		Order("tasks.created_at desc").
		Limit(limit).
		Scan(&hits).Error
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Stats returns task counts for every logged day of year.
func (s *Service) Stats(ctx context.Context, userID uint64, year int) ([]DayStat, error) {
	type row struct {
		Date  string
		Count int
	}
	var rows []row
	err := s.DB.WithContext(ctx).
		Table("work_logs").
		Select("work_logs.date AS date, count(tasks.id) AS count").
		Joins("JOIN tasks ON tasks.work_log_id = work_logs.id").
		Where("work_logs.user_id = ?", userID).
		Where("work_logs.date BETWEEN ? AND ?", fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year)).
		Group("work_logs.date").
		Order("work_logs.date asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]DayStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, DayStat{Date: r.Date, Count: r.Count, Level: activityLevel(r.Count)})
	}
	return out, nil
}

// TagCounts lists every tag the user has, most used first.
func (s *Service) TagCounts(ctx context.Context, userID uint64) ([]TagCount, error) {
	var tasks []Task
	if err := s.DB.WithContext(ctx).Select("tags").Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, t := range tasks {
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// RenameTag replaces oldTag with newTag on every task of the user and returns
// the number of tasks touched.
func (s *Service) RenameTag(ctx context.Context, userID uint64, oldTag, newTag string) (int64, error) {
	oldTag = strings.TrimSpace(oldTag)
	clean := NormalizeTags([]string{newTag})
	if oldTag == "" || len(clean) == 0 {
		return 0, ErrInvalidTag
	}
	newTag = clean[0]

	return s.rewriteTag(ctx, userID, oldTag, func(tags []string) []string {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t == oldTag {
				t = newTag
			}
			out = append(out, t)
		}
		return NormalizeTags(out)
	})
}

// DeleteTag removes tag from every task of the user.
func (s *Service) DeleteTag(ctx context.Context, userID uint64, tag string) (int64, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, ErrInvalidTag
	}

	return s.rewriteTag(ctx, userID, tag, func(tags []string) []string {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != tag {
				out = append(out, t)
			}
		}
		return out
	})
}

func (s *Service) rewriteTag(ctx context.Context, userID uint64, tag string, rewrite func([]string) []string) (int64, error) {
	var touched int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tasks []Task
		if err := withTag(tx, tag).
			Select("id", "tags").
			Where("user_id = ?", userID).
			Find(&tasks).Error; err != nil {
			return err
		}

		for _, t := range tasks {
			if !contains(t.Tags, tag) {
				continue
			}
			if err := tx.Model(&Task{}).Where("id = ?", t.ID).
				UpdateColumn("tags", Tags(rewrite(t.Tags))).Error; err != nil {
				return err
			}
			touched++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if s.Log != nil {
		s.Log.Debug("tag rewritten", zap.Uint64("user_id", userID), zap.String("tag", tag), zap.Int64("tasks", touched))
	}
	return touched, nil
}

// withTag narrows a task query to rows whose tags may contain tag. On
// Postgres this is exact; elsewhere it matches the quoted array literal and
// callers re-check membership.
func withTag(tx *gorm.DB, tag string) *gorm.DB {
	q := tx.Model(&Task{})
	if tx.Dialector.Name() == "postgres" {
		return q.Where("? = any(tags)", tag)
	}
	quoted := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(tag)
	return q.Where(`tags LIKE ? ESCAPE '\'`, `%"`+likeEscape(quoted)+`"%`)
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
