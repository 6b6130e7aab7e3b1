// Package hooks is an HTTP client for the surfaces the application under
// test exposes to its test harness: deterministic reset/seed hooks and the
// small public endpoints the fan panel depends on. These endpoints are
// consumed, never owned; this package asserts their contracts and nothing
// more.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const testTokenHeader = "X-Test-Token"

// Failure is a hook-surface error; the control API maps it to HOOK_FAILURE.
type Failure struct {
	Op      string
	Status  int
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("hooks: %s: %s: %v", f.Op, f.Message, f.Cause)
	}
	return fmt.Sprintf("hooks: %s: %s", f.Op, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

func fail(op string, status int, msg string, cause error) error {
	return &Failure{Op: op, Status: status, Message: msg, Cause: cause}
}

// Client talks to the app's test hooks and public endpoints.
type Client struct {
	baseURL   string
	testToken string
	http      *http.Client
}

// NewClient creates a hooks client. httpClient may be nil, in which case a
// client with a 15 second timeout is used.
func NewClient(baseURL, testToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		testToken: testToken,
		http:      httpClient,
	}
}

// Reset invokes the deterministic state reset hook.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.postHook(ctx, "reset", "/__test__/reset", nil)
	return err
}

// SeedQueueItem plants one item in the AI queue and returns its id. An
// empty id in an otherwise successful response is a contract violation.
func (c *Client) SeedQueueItem(ctx context.Context, itemType, title string) (string, error) {
	body, err := c.postHook(ctx, "seed", "/__test__/ai_queue/seed", map[string]string{
		"type":  itemType,
		"title": title,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fail("seed", 0, "seed response is not JSON", err)
	}
	if resp.ID == "" {
		return "", fail("seed", 0, "seed response carries no id", nil)
	}
	return resp.ID, nil
}

func (c *Client) postHook(ctx context.Context, op, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fail(op, 0, "marshal request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fail(op, 0, "build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.testToken != "" {
		req.Header.Set(testTokenHeader, c.testToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(op, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(op, resp.StatusCode, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(op, resp.StatusCode,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateBody(body)), nil)
	}

	slog.Debug("hook invoked", "op", op, "status", resp.StatusCode)
	return body, nil
}

// PollState fetches the live poll state. Any status >= 500 is a failure;
// a 200 must carry parseable JSON.
func (c *Client) PollState(ctx context.Context) (json.RawMessage, int, error) {
	return c.publicJSON(ctx, "poll state", http.MethodGet, "/api/poll/state", nil)
}

// Vote casts a poll vote. Same contract as PollState: the endpoint may
// reject the vote, but it must never blow up.
func (c *Client) Vote(ctx context.Context, payload any) (json.RawMessage, int, error) {
	return c.publicJSON(ctx, "vote", http.MethodPost, "/api/poll/vote", payload)
}

// Schedule fetches the static schedule document; it must be a JSON array
// or object.
func (c *Client) Schedule(ctx context.Context) (json.RawMessage, error) {
	raw, status, err := c.publicJSON(ctx, "schedule", http.MethodGet, "/schedule.json", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fail("schedule", status, fmt.Sprintf("HTTP %d; want 200", status), nil)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil, fail("schedule", status, "schedule is not a JSON array or object", nil)
	}
	return raw, nil
}

func (c *Client) publicJSON(ctx context.Context, op, method, path string, payload any) (json.RawMessage, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fail(op, 0, "marshal request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fail(op, 0, "build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fail(op, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fail(op, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fail(op, resp.StatusCode,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateBody(body)), nil)
	}
	if resp.StatusCode == http.StatusOK && !json.Valid(body) {
		return nil, resp.StatusCode, fail(op, resp.StatusCode, "200 response body is not valid JSON", nil)
	}
	return body, resp.StatusCode, nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
