//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

var env *Env

// Env holds shared state for all integration tests. The tests drive a
// running panel_controller, which in turn drives the browser tabs.
type Env struct {
	BaseURL string
	Client  *http.Client
	Roles   []string // roles discovered from /api/v1/panels
}

type panelInfo struct {
	Role     string `json:"role"`
	TargetID string `json:"target_id"`
	URL      string `json:"url"`
}

type activation struct {
	Label       string `json:"label"`
	Strategy    string `json:"strategy"`
	Signal      string `json:"signal"`
	HashBefore  string `json:"hash_before"`
	HashAfter   string `json:"hash_after"`
	ForcedClick bool   `json:"forced_click"`
}

type controlHandle struct {
	Label    string `json:"label"`
	Strategy string `json:"strategy"`
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
}

type paneReport struct {
	Panes struct {
		Total      int      `json:"total"`
		Visible    int      `json:"visible"`
		VisibleIDs []string `json:"visible_ids"`
		Skipped    bool     `json:"skipped"`
	} `json:"panes"`
	OK bool `json:"ok"`
}

type errorLog struct {
	Role   string `json:"role"`
	Count  int    `json:"count"`
	Errors []struct {
		Seq  int    `json:"seq"`
		Tag  string `json:"tag"`
		Text string `json:"text"`
	} `json:"errors"`
}

type runResult struct {
	Scenario string `json:"scenario"`
	Role     string `json:"role"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason"`
	Steps    []struct {
		Step    string `json:"step"`
		Label   string `json:"label"`
		Outcome string `json:"outcome"`
		Detail  string `json:"detail"`
	} `json:"steps"`
}

// discoverPanels fetches /api/v1/panels and records the attached roles.
func (e *Env) discoverPanels() error {
	resp, err := e.Client.Get(e.BaseURL + "/api/v1/panels")
	if err != nil {
		return fmt.Errorf("controller not reachable at %s: %w", e.BaseURL, err)
	}
	defer resp.Body.Close()

	var listing struct {
		Panels []panelInfo `json:"panels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fmt.Errorf("decode panels: %w", err)
	}
	if len(listing.Panels) == 0 {
		return fmt.Errorf("no panel tabs attached at %s", e.BaseURL)
	}
	e.Roles = e.Roles[:0]
	for _, p := range listing.Panels {
		e.Roles = append(e.Roles, p.Role)
	}
	return nil
}

func (e *Env) hasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// requireRole skips the test when the role's panel tab is not attached.
func requireRole(t *testing.T, role string) {
	t.Helper()
	if !env.hasRole(role) {
		t.Skipf("panel for role %q not attached", role)
	}
}

// settle navigates the role panel and waits until it reports ready.
func settle(t *testing.T, role string) {
	t.Helper()
	resp := env.POST(t, "/api/v1/panel/"+role+"/navigate", nil)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POST(t, "/api/v1/panel/"+role+"/ready", nil)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestMain(m *testing.M) {
	baseURL := os.Getenv("PANEL_CONTROLLER_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8188"
	}

	env = &Env{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}

	if err := env.discoverPanels(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "integration: panels %v at %s\n", env.Roles, env.BaseURL)

	os.Exit(m.Run())
}

// --- HTTP helpers ---

func (e *Env) GET(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.Client.Get(e.BaseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (e *Env) POST(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, path, body)
}

func (e *Env) DELETE(t *testing.T, path string) *http.Response {
	t.Helper()
	return e.do(t, http.MethodDelete, path, nil)
}

func (e *Env) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("%s %s: marshal body: %v", method, path, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.BaseURL+path, r)
	if err != nil {
		t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// --- Assertion helpers ---

func requireStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, body)
	}
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
