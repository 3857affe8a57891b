// Package client is a small HTTP client for the worklog API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"worklog/internal/worklog"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("worklog api: %d %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	return c.token(ctx, "/auth/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.token(ctx, "/auth/login", email, password)
}

func (c *Client) token(ctx context.Context, path, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// AddTask appends content to the day's log. Tags on the new task are always
// empty here; see TagPoller.
func (c *Client) AddTask(ctx context.Context, date, content string) (*worklog.WorkLog, error) {
	var wl worklog.WorkLog
	body := map[string]string{"date": date, "content": content}
	if err := c.doJSON(ctx, http.MethodPost, "/worklogs", body, &wl); err != nil {
		return nil, err
	}
	return &wl, nil
}

// DayLog fetches a day's log. A day without entries comes back with an empty
// task list.
func (c *Client) DayLog(ctx context.Context, date string) (*worklog.WorkLog, error) {
	var wl worklog.WorkLog
	if err := c.doJSON(ctx, http.MethodGet, "/worklogs/date/"+url.PathEscape(date), nil, &wl); err != nil {
		return nil, err
	}
	return &wl, nil
}

func (c *Client) AISummary(ctx context.Context, start, end string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	body := map[string]string{"start": start, "end": end}
	if err := c.doJSON(ctx, http.MethodPost, "/worklogs/ai-summary", body, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) Standup(ctx context.Context) (string, error) {
	var out struct {
		Standup string `json:"standup"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/worklogs/standup", nil, &out); err != nil {
		return "", err
	}
	return out.Standup, nil
}

func (c *Client) Search(ctx context.Context, q string) ([]worklog.TaskHit, error) {
	var out []worklog.TaskHit
	if err := c.doJSON(ctx, http.MethodGet, "/worklogs/search?q="+url.QueryEscape(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Tags(ctx context.Context) ([]worklog.TagCount, error) {
	var out []worklog.TagCount
	if err := c.doJSON(ctx, http.MethodGet, "/tags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export copies the spreadsheet for [start, end] into w. Empty bounds export
// everything.
func (c *Client) Export(ctx context.Context, start, end string, w io.Writer) error {
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	path := "/worklogs/summary"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send returns the response only for 2xx statuses; the caller closes it.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}
