// Package report builds AI summaries and standups from stored work logs.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worklog/internal/ai"
	"worklog/internal/worklog"

	"go.uber.org/zap"
)

// ErrSummarizer wraps any failure of the completion backend.
var ErrSummarizer = errors.New("summarizer unavailable")

var ErrInvalidRange = errors.New("start must not be after end")

const NoLogsSummary = "No logs found for the selected date range."

type Service struct {
	Logs *worklog.Service
	AI   ai.Completer
	Log  *zap.Logger
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Summary reports on the user's logs in [start, end], calling out every day in
// the range without a log.
func (s *Service) Summary(ctx context.Context, userID uint64, start, end string) (string, error) {
	from, err := worklog.ParseDay(start)
	if err != nil {
		return "", err
	}
	to, err := worklog.ParseDay(end)
	if err != nil {
		return "", err
	}
	if from.After(to) {
		return "", ErrInvalidRange
	}

	logs, err := s.Logs.ListRange(ctx, userID, start, end)
	if err != nil {
		return "", fmt.Errorf("load logs: %w", err)
	}
	if len(logs) == 0 {
		return NoLogsSummary, nil
	}

	days := make([]ai.DayEntries, 0, len(logs))
	existing := make([]string, 0, len(logs))
	for _, l := range logs {
		days = append(days, entries(&l))
		existing = append(existing, l.Date)
	}
	missing := worklog.MissingDates(from, to, existing)

	out, err := s.AI.Complete(ctx, ai.SummaryRequest(days, missing))
	if err != nil {
		s.Log.Error("ai summary failed", zap.Uint64("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSummarizer, err)
	}
	return out, nil
}

// Standup drafts a standup from today's log and the most recent earlier one.
// It returns "" without calling the backend when there is no activity.
func (s *Service) Standup(ctx context.Context, userID uint64) (string, error) {
	today := worklog.FormatDay(s.now())

	cur, err := s.Logs.GetByDate(ctx, userID, today)
	if err != nil && !errors.Is(err, worklog.ErrNotFound) {
		return "", err
	}
	prev, err := s.Logs.LatestBefore(ctx, userID, today)
	if err != nil && !errors.Is(err, worklog.ErrNotFound) {
		return "", err
	}
	if cur == nil && prev == nil {
		return "", nil
	}

	var curDay, prevDay *ai.DayEntries
	if cur != nil {
		d := entries(cur)
		curDay = &d
	}
	if prev != nil {
		d := entries(prev)
		prevDay = &d
	}

	out, err := s.AI.Complete(ctx, ai.StandupRequest(prevDay, curDay))
	if err != nil {
		s.Log.Error("ai standup failed", zap.Uint64("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSummarizer, err)
	}
	return out, nil
}

func entries(l *worklog.WorkLog) ai.DayEntries {
	tasks := make([]string, 0, len(l.Tasks))
	for _, t := range l.Tasks {
		tasks = append(tasks, t.Content)
	}
	return ai.DayEntries{Date: l.Date, Tasks: tasks}
}
