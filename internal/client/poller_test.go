package client_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"worklog/internal/client"
	"worklog/internal/worklog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	calls int
	// tagsAt is the call number from which the task carries tags; 0 never.
	tagsAt int
	failAt map[int]bool
}

func (f *scriptedFetcher) DayLog(ctx context.Context, date string) (*worklog.WorkLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt[f.calls] {
		return nil, errors.New("connection reset")
	}
	task := worklog.Task{ID: "t1", Content: "Fixed login bug", Tags: worklog.Tags{}}
	if f.tagsAt > 0 && f.calls >= f.tagsAt {
		task.Tags = worklog.Tags{"BugFix", "Frontend"}
	}
	return &worklog.WorkLog{Date: date, Tasks: []worklog.Task{task}}, nil
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastPoller(f client.Fetcher) *client.TagPoller {
	p := client.NewTagPoller(f)
	p.Interval = time.Millisecond
	return p
}

func TestNewTagPollerDefaults(t *testing.T) {
	p := client.NewTagPoller(&scriptedFetcher{})
	assert.Equal(t, 3*time.Second, p.Interval)
	assert.Equal(t, 5, p.MaxAttempts)
}

func TestWaitStopsAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := &scriptedFetcher{}
	task, ok, err := fastPoller(f).Wait(context.Background(), "2024-05-01", "t1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "t1", task.ID)
	assert.Empty(t, task.Tags)
	assert.Equal(t, 5, f.count())
}

func TestWaitStopsWhenTagsAppear(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := &scriptedFetcher{tagsAt: 2}
	var refreshed [][]worklog.Task
	p := fastPoller(f)
	p.OnRefresh = func(tasks []worklog.Task) { refreshed = append(refreshed, tasks) }

	task, ok, err := p.Wait(context.Background(), "2024-05-01", "t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"BugFix", "Frontend"}, []string(task.Tags))
	assert.Equal(t, 2, f.count())
	require.Len(t, refreshed, 2)
	assert.Equal(t, worklog.Tags{"BugFix", "Frontend"}, refreshed[1][0].Tags)
}

func TestWaitCountsFetchErrors(t *testing.T) {
	f := &scriptedFetcher{failAt: map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}, tagsAt: 1}
	_, ok, err := fastPoller(f).Wait(context.Background(), "2024-05-01", "t1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5, f.count())
}

func TestWaitHonoursCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := &scriptedFetcher{}
	p := client.NewTagPoller(f)
	p.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := p.Wait(ctx, "2024-05-01", "t1")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
	assert.Zero(t, f.count())
}
