package client

import (
	"context"
	"time"

	"worklog/internal/worklog"
)

const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPollMaxAttempts = 5
)

// Fetcher loads a day's log. *Client satisfies it.
type Fetcher interface {
	DayLog(ctx context.Context, date string) (*worklog.WorkLog, error)
}

// TagPoller re-reads a day's log until a task picks up its background tags or
// the attempt budget runs out.
type TagPoller struct {
	Fetcher     Fetcher
	Interval    time.Duration
	MaxAttempts int

	// OnRefresh, if set, receives the server's task list after every
	// successful fetch.
	OnRefresh func(tasks []worklog.Task)
}

func NewTagPoller(f Fetcher) *TagPoller {
	return &TagPoller{
		Fetcher:     f,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultPollMaxAttempts,
	}
}

// Wait polls date every Interval for taskID. It returns the task and true as
// soon as the task has tags, or the last seen copy and false once
// MaxAttempts fetches are spent. Failed fetches use up an attempt too.
// Cancelling ctx stops at once with ctx.Err().
func (p *TagPoller) Wait(ctx context.Context, date, taskID string) (worklog.Task, bool, error) {
	var last worklog.Task

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last, false, ctx.Err()
		case <-timer.C:
		}

		wl, err := p.Fetcher.DayLog(ctx, date)
		if err != nil && ctx.Err() != nil {
			return last, false, ctx.Err()
		}
		if err == nil && wl != nil {
			if p.OnRefresh != nil {
				p.OnRefresh(wl.Tasks)
			}
			for _, t := range wl.Tasks {
				if t.ID != taskID {
					continue
				}
				last = t
				if len(t.Tags) > 0 {
					return t, true, nil
				}
			}
		}

		timer.Reset(p.Interval)
	}
	return last, false, nil
}
