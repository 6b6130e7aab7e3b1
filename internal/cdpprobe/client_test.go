package cdpprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func withDefaultHTTPClient(t *testing.T, transport http.RoundTripper) {
	t.Helper()
	origClient := http.DefaultClient
	t.Cleanup(func() {
		http.DefaultClient = origClient
	})
	http.DefaultClient = &http.Client{
		Transport: transport,
	}
}

func testRolePaths() map[string]string {
	return map[string]string{
		"admin":   "/admin",
		"manager": "/manager",
		"fan":     "/",
	}
}

func newTestClient() *Client {
	c := NewClient("http://example.com", "example.com", testRolePaths(), Options{})
	c.cdp = newRawCDP("http://example.com")
	return c
}

func TestRefreshTabsWrapsListTargetsError(t *testing.T) {
	withDefaultHTTPClient(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/json/list" {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader(`oops`)),
			}, nil
		}
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(``))}, nil
	}))

	c := newTestClient()

	err := c.refreshTabs(context.Background())
	if err == nil {
		t.Fatal("expected refreshTabs() to fail")
	}

	var codedErr *CodedError
	if !errors.As(err, &codedErr) {
		t.Fatalf("expected *CodedError, got %T", err)
	}
	if codedErr.Code != CodeCDPUnavailable {
		t.Fatalf("error code = %s; want %s", codedErr.Code, CodeCDPUnavailable)
	}
	if !strings.Contains(codedErr.Message, "failed to list targets") {
		t.Fatalf("error message = %q; want to contain %q", codedErr.Message, "failed to list targets")
	}
}

func TestRefreshTabsMapsRolesByPathPrefix(t *testing.T) {
	withDefaultHTTPClient(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/json/list" {
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(``))}, nil
		}
		targets := []map[string]any{
			{"id": "t-admin", "type": "page", "url": "http://example.com/admin#overview", "title": "Admin"},
			{"id": "t-manager", "type": "page", "url": "http://example.com/manager", "title": "Manager"},
			{"id": "t-fan", "type": "page", "url": "http://example.com/", "title": "Fan"},
			{"id": "t-other", "type": "page", "url": "http://unrelated.test/", "title": "Other"},
			{"id": "t-worker", "type": "service_worker", "url": "http://example.com/admin/sw.js"},
		}
		payload, err := json.Marshal(targets)
		if err != nil {
			t.Fatalf("json.Marshal() = %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(string(payload))),
		}, nil
	}))

	c := newTestClient()
	if err := c.refreshTabs(context.Background()); err != nil {
		t.Fatalf("refreshTabs() = %v", err)
	}

	panels, err := c.ListPanels(context.Background())
	if err != nil {
		t.Fatalf("ListPanels() = %v", err)
	}
	if len(panels) != 3 {
		t.Fatalf("got %d panels; want 3", len(panels))
	}

	// Sorted by role: admin, fan, manager.
	wantTargets := map[string]string{
		"admin":   "t-admin",
		"fan":     "t-fan",
		"manager": "t-manager",
	}
	for _, p := range panels {
		if wantTargets[p.Role] != p.TargetID {
			t.Errorf("role %s mapped to target %s; want %s", p.Role, p.TargetID, wantTargets[p.Role])
		}
	}
}

func TestRefreshTabsDropsClosedPanels(t *testing.T) {
	withDefaultHTTPClient(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/json/list" {
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader(``))}, nil
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`[{"id":"t-fan","type":"page","url":"http://example.com/","title":"Fan"}]`)),
		}, nil
	}))

	c := newTestClient()
	c.tabs[target.ID("t-admin")] = &tabSession{info: PanelInfo{
		Role:     "admin",
		TargetID: "t-admin",
		URL:      "http://example.com/admin",
	}}
	c.roleToTarget["admin"] = target.ID("t-admin")

	if err := c.refreshTabs(context.Background()); err != nil {
		t.Fatalf("refreshTabs() = %v", err)
	}

	if _, _, found := c.lookupPanelSession("admin"); found {
		t.Fatal("expected closed admin panel to be dropped")
	}
	if _, _, found := c.lookupPanelSession("fan"); !found {
		t.Fatal("expected fan panel to be registered")
	}
}

func TestForcedClickWrapsDispatchError(t *testing.T) {
	c := newTestClient()
	c.tabs[target.ID("t-admin")] = &tabSession{
		sessionID: "session-1",
		info: PanelInfo{
			Role:     "admin",
			TargetID: "t-admin",
			URL:      "http://example.com/admin",
		},
	}
	c.roleToTarget["admin"] = target.ID("t-admin")

	// The raw client has no WebSocket connection, so the dispatch fails.
	err := c.forcedClick(context.Background(), "admin", Box{X: 10, Y: 10, Width: 40, Height: 20})
	if err == nil {
		t.Fatal("expected forcedClick() to fail")
	}

	var codedErr *CodedError
	if !errors.As(err, &codedErr) {
		t.Fatalf("expected *CodedError, got %T", err)
	}
	if codedErr.Code != CodeEvalFailure {
		t.Fatalf("error code = %s; want %s", codedErr.Code, CodeEvalFailure)
	}
	if !strings.Contains(codedErr.Message, "failed to dispatch trusted mouse click") {
		t.Fatalf("error message = %q; want to contain %q", codedErr.Message, "failed to dispatch trusted mouse click")
	}
}

func TestRoleFromURLLongestPrefixWins(t *testing.T) {
	c := NewClient("http://example.com", "", testRolePaths(), Options{})

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/admin", "admin"},
		{"http://example.com/admin#matches", "admin"},
		{"http://example.com/manager", "manager"},
		{"http://example.com/", "fan"},
		{"http://example.com", "fan"},
		{"http://example.com/schedule", "fan"},
		{"://bad url", ""},
	}
	for _, tt := range tests {
		if got := c.roleFromURL(tt.url); got != tt.want {
			t.Errorf("roleFromURL(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	c := NewClient("http://example.com", "", testRolePaths(), Options{})

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"cdp unavailable", newError(CodeCDPUnavailable, "connect failed", nil), true},
		{"panel not found", newError(CodePanelNotFound, "no open tab", nil), false},
		{"tab not found", newError(CodeTabNotFound, "control not found", nil), false},
		{"eval failure no cause", newError(CodeEvalFailure, "invalid envelope", nil), false},
		{"eval failure websocket cause", newError(CodeEvalFailure, "evaluation failed", fmt.Errorf("websocket: close 1006")), true},
		{"eval failure session closed", newError(CodeEvalFailure, "evaluation failed", fmt.Errorf("rawcdp: Session closed")), true},
		{"eval failure js error", newError(CodeEvalFailure, "evaluation failed", fmt.Errorf("rawcdp: eval exception: Uncaught")), false},
		{"plain error", fmt.Errorf("not coded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.shouldRetry(tt.err); got != tt.want {
				t.Fatalf("shouldRetry() = %t; want %t", got, tt.want)
			}
		})
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	if opts.ReadyTimeout != 10*time.Second {
		t.Errorf("ReadyTimeout = %s; want 10s", opts.ReadyTimeout)
	}
	if opts.ActivateTimeout != 2500*time.Millisecond {
		t.Errorf("ActivateTimeout = %s; want 2.5s", opts.ActivateTimeout)
	}
	if opts.AppRootSelector != `[data-testid="app-root"]` {
		t.Errorf("AppRootSelector = %q", opts.AppRootSelector)
	}
	if opts.PaneClass != "tab-pane" {
		t.Errorf("PaneClass = %q", opts.PaneClass)
	}

	custom := Options{ReadyTimeout: time.Second, PaneClass: "panel-body"}.withDefaults()
	if custom.ReadyTimeout != time.Second {
		t.Errorf("custom ReadyTimeout = %s; want 1s", custom.ReadyTimeout)
	}
	if custom.PaneClass != "panel-body" {
		t.Errorf("custom PaneClass = %q; want panel-body", custom.PaneClass)
	}
}

func TestEvalOnPanelRejectsEmptyRole(t *testing.T) {
	c := newTestClient()

	err := c.evalOnPanel(context.Background(), "  ", jsHash(), nil)
	if err == nil {
		t.Fatal("expected evalOnPanel() to fail")
	}
	var codedErr *CodedError
	if !errors.As(err, &codedErr) {
		t.Fatalf("expected *CodedError, got %T", err)
	}
	if codedErr.Code != CodePanelNotFound {
		t.Fatalf("error code = %s; want %s", codedErr.Code, CodePanelNotFound)
	}
}
