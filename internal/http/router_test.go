package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"worklog/internal/ai"
	"worklog/internal/auth"
	"worklog/internal/config"
	httpx "worklog/internal/http"
	"worklog/internal/report"
	"worklog/internal/testutil"
	"worklog/internal/worklog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type env struct {
	srv   *httptest.Server
	logs  *worklog.Service
	ai    *fakeAI
	token string
}

type fakeAI struct {
	out   string
	err   error
	calls atomic.Int32
}

func (f *fakeAI) Complete(ctx context.Context, req ai.Request) (string, error) {
	f.calls.Add(1)
	return f.out, f.err
}

func newEnv(t *testing.T, cfg config.Config) *env {
	t.Helper()

	gdb := testutil.NewDB(t)
	fake := &fakeAI{out: "All done."}
	logs := &worklog.Service{DB: gdb, Log: zap.NewNop()}

	h := httpx.NewRouter(httpx.Deps{
		Config: cfg,
		Log:    zap.NewNop(),
		JWT:    auth.NewJWT("test-secret"),
		Users:  &auth.Users{DB: gdb},
		Logs:   logs,
		Reports: &report.Service{
			Logs: logs,
			AI:   fake,
			Log:  zap.NewNop(),
		},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	e := &env{srv: srv, logs: logs, ai: fake}
	e.token = e.signup(t, "dev@example.com", "correct horse")
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *env) signup(t *testing.T, email, password string) string {
	t.Helper()
	saved := e.token
	e.token = ""
	defer func() { e.token = saved }()

	resp := e.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type taskDTO struct {
	ID      string   `json:"id"`
	LogID   uint64   `json:"log_id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type logDTO struct {
	ID    uint64    `json:"id"`
	Date  string    `json:"date"`
	Tasks []taskDTO `json:"tasks"`
}

func TestHealth(t *testing.T) {
	e := newEnv(t, config.Config{})
	resp := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t, config.Config{})

	saved := e.token
	e.token = ""
	resp := e.do(t, http.MethodPost, "/auth/register", map[string]string{"email": "dev@example.com", "password": "whatever1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "DEV@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "dev@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/worklogs/date/2024-05-01", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	e.token = saved
	resp = e.do(t, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		UserID uint64 `json:"user_id"`
	}
	decode(t, resp, &me)
	assert.NotZero(t, me.UserID)
}

func TestCreateTaskReturnsLogWithEmptyTags(t *testing.T) {
	e := newEnv(t, config.Config{})

	resp := e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "Fixed login bug"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wl logDTO
	decode(t, resp, &wl)
	assert.Equal(t, "2024-05-01", wl.Date)
	require.Len(t, wl.Tasks, 1)
	assert.Equal(t, "Fixed login bug", wl.Tasks[0].Content)
	assert.NotNil(t, wl.Tasks[0].Tags)
	assert.Empty(t, wl.Tasks[0].Tags)

	resp = e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "Reviewed PR"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &wl)
	assert.Len(t, wl.Tasks, 2)
}

func TestCreateTaskValidation(t *testing.T) {
	e := newEnv(t, config.Config{})

	cases := []map[string]string{
		{"date": "2024-05-01"},
		{"content": "x"},
		{"date": "2024-13-01", "content": "x"},
		{"date": "2024-05-01", "content": "   "},
	}
	for _, body := range cases {
		resp := e.do(t, http.MethodPost, "/worklogs", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%v", body)
	}
}

func TestGetByDate(t *testing.T) {
	e := newEnv(t, config.Config{})

	resp := e.do(t, http.MethodGet, "/worklogs/date/2024-05-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty map[string]any
	decode(t, resp, &empty)
	assert.Equal(t, map[string]any{"tasks": []any{}}, empty)

	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "a"})

	resp = e.do(t, http.MethodGet, "/worklogs/date/2024-05-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var wl logDTO
	decode(t, resp, &wl)
	require.Len(t, wl.Tasks, 1)

	resp = e.do(t, http.MethodGet, "/worklogs/date/yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogsAreScopedToUser(t *testing.T) {
	e := newEnv(t, config.Config{})

	resp := e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "mine"})
	var wl logDTO
	decode(t, resp, &wl)

	e.token = e.signup(t, "other@example.com", "password123")

	resp = e.do(t, http.MethodGet, "/worklogs/date/2024-05-01", nil)
	var other map[string]any
	decode(t, resp, &other)
	assert.Equal(t, map[string]any{"tasks": []any{}}, other)

	resp = e.do(t, http.MethodDelete, "/worklogs/task/"+itoa(wl.ID)+"/"+wl.Tasks[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateAndDeleteTask(t *testing.T) {
	e := newEnv(t, config.Config{})

	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "a"})
	resp := e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "b"})
	var wl logDTO
	decode(t, resp, &wl)
	base := "/worklogs/task/" + itoa(wl.ID) + "/"

	resp = e.do(t, http.MethodPut, base+wl.Tasks[0].ID, map[string]any{"content": "a2", "tags": []string{"#Docs", "docs"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &wl)
	assert.Equal(t, "a2", wl.Tasks[0].Content)
	assert.Equal(t, []string{"Docs", "docs"}, wl.Tasks[0].Tags)

	resp = e.do(t, http.MethodPut, base+"nope", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPut, "/worklogs/task/abc/"+wl.Tasks[0].ID, map[string]any{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, base+wl.Tasks[0].ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &wl)
	require.Len(t, wl.Tasks, 1)
	assert.Equal(t, "b", wl.Tasks[0].Content)

	resp = e.do(t, http.MethodDelete, base+wl.Tasks[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRangeAndPaging(t *testing.T) {
	e := newEnv(t, config.Config{})
	for _, d := range []string{"2024-05-03", "2024-05-01", "2024-05-02"} {
		e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": d, "content": "work " + d})
	}

	resp := e.do(t, http.MethodGet, "/worklogs/range?from=2024-05-01&to=2024-05-02", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs []logDTO
	decode(t, resp, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, "2024-05-01", logs[0].Date)
	assert.Equal(t, "2024-05-02", logs[1].Date)

	resp = e.do(t, http.MethodGet, "/worklogs/range?from=2024-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/worklogs?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Logs       []logDTO `json:"logs"`
		Page       int      `json:"page"`
		Limit      int      `json:"limit"`
		TotalPages int      `json:"total_pages"`
	}
	decode(t, resp, &page)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, "2024-05-03", page.Logs[0].Date)
}

func TestSearch(t *testing.T) {
	e := newEnv(t, config.Config{})
	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "Fixed LOGIN bug"})
	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-02", "content": "Wrote docs"})

	resp := e.do(t, http.MethodGet, "/worklogs/search?q=login", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hits []struct {
		Date    string `json:"date"`
		Content string `json:"content"`
	}
	decode(t, resp, &hits)
	require.Len(t, hits, 1)
	assert.Equal(t, "2024-05-01", hits[0].Date)

	resp = e.do(t, http.MethodGet, "/worklogs/search?q=", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAISummary(t *testing.T) {
	e := newEnv(t, config.Config{})

	resp := e.do(t, http.MethodGet, "/worklogs/ai-summary?start=2024-05-01&end=2024-05-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	decode(t, resp, &out)
	assert.Equal(t, report.NoLogsSummary, out["summary"])
	assert.Zero(t, e.ai.calls.Load())

	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "a"})

	resp = e.do(t, http.MethodPost, "/worklogs/ai-summary", map[string]string{"start": "2024-05-01", "end": "2024-05-03"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &out)
	assert.Equal(t, "All done.", out["summary"])

	resp = e.do(t, http.MethodGet, "/worklogs/ai-summary?start=2024-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/worklogs/ai-summary?start=2024-05-03&end=2024-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e.ai.err = errors.New("upstream 503")
	resp = e.do(t, http.MethodGet, "/worklogs/ai-summary?start=2024-05-01&end=2024-05-03", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestStandupWithoutActivity(t *testing.T) {
	e := newEnv(t, config.Config{})

	resp := e.do(t, http.MethodGet, "/worklogs/standup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	decode(t, resp, &out)
	assert.Equal(t, "", out["standup"])
	assert.Zero(t, e.ai.calls.Load())
}

func TestStats(t *testing.T) {
	e := newEnv(t, config.Config{})
	today := time.Now().UTC().Format(worklog.DayLayout)
	for i := 0; i < 2; i++ {
		e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": today, "content": "x"})
	}

	resp := e.do(t, http.MethodGet, "/worklogs/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats []worklog.DayStat
	decode(t, resp, &stats)
	assert.Equal(t, []worklog.DayStat{{Date: today, Count: 2, Level: 2}}, stats)
}

func TestExportSpreadsheet(t *testing.T) {
	e := newEnv(t, config.Config{})
	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "a"})
	e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "b"})

	resp := e.do(t, http.MethodGet, "/worklogs/summary?start=2024-05-01&end=2024-05-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "worklog_summary.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Work Log Summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Date", "Tasks"}, {"2024-05-01", "a, b"}}, rows)
}

func TestTagsEndpoints(t *testing.T) {
	e := newEnv(t, config.Config{})
	resp := e.do(t, http.MethodPost, "/worklogs", map[string]string{"date": "2024-05-01", "content": "a"})
	var wl logDTO
	decode(t, resp, &wl)
	e.do(t, http.MethodPut, "/worklogs/task/"+itoa(wl.ID)+"/"+wl.Tasks[0].ID, map[string]any{"content": "a", "tags": []string{"Bug", "UI"}})

	resp = e.do(t, http.MethodPut, "/tags/rename", map[string]string{"old_tag": "Bug", "new_tag": "BugFix"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var upd map[string]int
	decode(t, resp, &upd)
	assert.Equal(t, 1, upd["updated"])

	resp = e.do(t, http.MethodDelete, "/tags/UI", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/tags", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags []worklog.TagCount
	decode(t, resp, &tags)
	assert.Equal(t, []worklog.TagCount{{Tag: "BugFix", Count: 1}}, tags)

	resp = e.do(t, http.MethodPut, "/tags/rename", map[string]string{"old_tag": "BugFix"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, config.Config{RateLimit: 3, RateWindow: time.Minute})

	// signup in newEnv already used one
	for i := 0; i < 2; i++ {
		resp := e.do(t, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func itoa(n uint64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
