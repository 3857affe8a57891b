package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"worklog/internal/ai"
	"worklog/internal/auth"
	"worklog/internal/client"
	"worklog/internal/config"
	"worklog/internal/enrich"
	httpx "worklog/internal/http"
	"worklog/internal/jobs"
	"worklog/internal/report"
	"worklog/internal/testutil"
	"worklog/internal/worklog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newServer runs the full API with a live enrichment pool behind it.
func newServer(t *testing.T, completer ai.Completer) *httptest.Server {
	t.Helper()

	gdb := testutil.NewDB(t)
	pool := jobs.NewPool(&jobs.Repo{DB: gdb}, zap.NewNop(), 1)
	pool.Interval = 20 * time.Millisecond

	logs := &worklog.Service{DB: gdb, Jobs: pool, Log: zap.NewNop()}
	pool.Register(jobs.TypeTagEnrich, &enrich.Enricher{Tasks: logs, AI: completer, Log: zap.NewNop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pool.Run(ctx)
	}()

	srv := httptest.NewServer(httpx.NewRouter(httpx.Deps{
		Config:  config.Config{},
		Log:     zap.NewNop(),
		JWT:     auth.NewJWT("test-secret"),
		Users:   &auth.Users{DB: gdb},
		Logs:    logs,
		Reports: &report.Service{Logs: logs, AI: completer, Log: zap.NewNop()},
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv
}

func TestAddThenPollForTags(t *testing.T) {
	completer := ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		if req.MaxTokens == ai.TagMaxTokens {
			return "#BugFix, #Frontend", nil
		}
		return "summary", nil
	})
	srv := newServer(t, completer)
	ctx := context.Background()

	c := client.New(srv.URL, "")
	token, err := c.Signup(ctx, "dev@example.com", "correct horse")
	require.NoError(t, err)
	c.Token = token

	wl, err := c.AddTask(ctx, "2024-05-01", "Fixed login bug")
	require.NoError(t, err)
	require.Len(t, wl.Tasks, 1)
	assert.Empty(t, wl.Tasks[0].Tags)

	p := client.NewTagPoller(c)
	p.Interval = 50 * time.Millisecond
	p.MaxAttempts = 40
	task, ok, err := p.Wait(ctx, "2024-05-01", wl.Tasks[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"BugFix", "Frontend"}, []string(task.Tags))

	hits, err := c.Search(ctx, "login")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	tags, err := c.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	summary, err := c.AISummary(ctx, "2024-05-01", "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, "summary", summary)

	var buf bytes.Buffer
	require.NoError(t, c.Export(ctx, "", "", &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "PK"))
}

func TestDayLogWithoutEntries(t *testing.T) {
	srv := newServer(t, ai.CompleterFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "", errors.New("unused")
	}))
	ctx := context.Background()

	c := client.New(srv.URL, "")
	token, err := c.Signup(ctx, "dev@example.com", "correct horse")
	require.NoError(t, err)
	c.Token = token

	wl, err := c.DayLog(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Empty(t, wl.Tasks)

	c.Token = "garbage"
	_, err = c.DayLog(ctx, "2024-05-01")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}
