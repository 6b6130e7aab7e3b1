package cdpprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
)

// transientHints are substrings in error causes that indicate a transient
// failure worth retrying (e.g. broken connection, closed session).
var transientHints = []string{
	"context canceled",
	"target closed",
	"session closed",
	"websocket",
	"connection reset",
	"broken pipe",
	"eof",
	"connection refused",
	"connection closed",
}

// Options tunes the probe protocol. Zero values fall back to the defaults
// below.
type Options struct {
	EvalTimeout     time.Duration
	ReadyTimeout    time.Duration
	ActivateTimeout time.Duration
	AppRootSelector string
	PaneClass       string
}

const (
	defaultEvalTimeout     = 5 * time.Second
	defaultReadyTimeout    = 10 * time.Second
	defaultActivateTimeout = 2500 * time.Millisecond
	defaultAppRootSelector = `[data-testid="app-root"]`
	defaultPaneClass       = "tab-pane"

	readyPollInterval  = 250 * time.Millisecond
	signalPollInterval = 100 * time.Millisecond
	revealSettle       = 150 * time.Millisecond
	maxRevealAttempts  = 5
)

func (o Options) withDefaults() Options {
	if o.EvalTimeout <= 0 {
		o.EvalTimeout = defaultEvalTimeout
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = defaultReadyTimeout
	}
	if o.ActivateTimeout <= 0 {
		o.ActivateTimeout = defaultActivateTimeout
	}
	if o.AppRootSelector == "" {
		o.AppRootSelector = defaultAppRootSelector
	}
	if o.PaneClass == "" {
		o.PaneClass = defaultPaneClass
	}
	return o
}

type tabSession struct {
	info      PanelInfo
	mu        sync.Mutex
	sessionID string // CDP session ID from Target.attachToTarget
}

// Client drives the role panels of the application under test over raw CDP.
// Tabs are discovered from the browser target list, filtered by URL, and
// mapped to roles by path prefix.
type Client struct {
	cdpURL    string
	tabFilter string
	rolePaths map[string]string // role -> URL path prefix
	opts      Options

	mu           sync.Mutex
	cdp          *rawCDP
	tabs         map[target.ID]*tabSession
	roleToTarget map[string]target.ID

	panelLocksMu sync.Mutex
	panelLocks   map[string]*sync.Mutex
}

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// NewClient creates a panel client. tabFilter is a case-insensitive URL
// substring ("" matches every page target); rolePaths maps each role to the
// path prefix that identifies its panel, longest prefix winning.
func NewClient(cdpURL, tabFilter string, rolePaths map[string]string, opts Options) *Client {
	paths := make(map[string]string, len(rolePaths))
	for role, p := range rolePaths {
		paths[role] = p
	}
	return &Client{
		cdpURL:       cdpURL,
		tabFilter:    strings.ToLower(strings.TrimSpace(tabFilter)),
		rolePaths:    paths,
		opts:         opts.withDefaults(),
		tabs:         make(map[target.ID]*tabSession),
		roleToTarget: make(map[string]target.ID),
		panelLocks:   make(map[string]*sync.Mutex),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	slog.Info("cdpprobe connect start", "cdp_url", c.cdpURL)
	c.cleanupLocked()

	c.cdp = newRawCDP(c.cdpURL)
	if err := c.cdp.connect(ctx); err != nil {
		c.cdp = nil
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	if err := c.syncTabsLocked(ctx); err != nil {
		slog.Error("cdpprobe initial tab sync failed", "error", err)
		c.cleanupLocked()
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	slog.Info("cdpprobe connect ok", "cdp_url", c.cdpURL, "panels", len(c.tabs))
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	return nil
}

func (c *Client) cleanupLocked() {
	// Detach from any active sessions without closing targets.
	if c.cdp != nil {
		for _, session := range c.tabs {
			if session == nil {
				continue
			}
			session.mu.Lock()
			if session.sessionID != "" {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = c.cdp.detachFromTarget(ctx, session.sessionID)
				cancel()
				session.sessionID = ""
			}
			session.mu.Unlock()
		}
		c.cdp.close()
		c.cdp = nil
	}
	c.tabs = make(map[target.ID]*tabSession)
	c.roleToTarget = make(map[string]target.ID)
}

// ListPanels returns the currently discovered role panels, sorted by role.
func (c *Client) ListPanels(ctx context.Context) ([]PanelInfo, error) {
	if err := c.refreshTabs(ctx); err != nil {
		slog.Warn("cdpprobe list panels failed", "error", err)
		return nil, err
	}

	c.mu.Lock()
	panels := make([]PanelInfo, 0, len(c.tabs))
	for _, s := range c.tabs {
		if s != nil {
			panels = append(panels, s.info)
		}
	}
	c.mu.Unlock()

	sort.Slice(panels, func(i, j int) bool {
		return panels[i].Role < panels[j].Role
	})
	return panels, nil
}

// Navigate points the role's tab at url and re-syncs the tab registry.
// Transport-level load failures (DNS, refused connection) are fatal here;
// HTTP status outcomes are the request watcher's concern.
func (c *Client) Navigate(ctx context.Context, role, navURL string) (NavResult, error) {
	lock := c.panelLock(role)
	lock.Lock()
	defer lock.Unlock()

	session, _, err := c.resolvePanelSession(ctx, role)
	if err != nil {
		return NavResult{}, err
	}

	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		return NavResult{}, newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	sessionID, err := c.ensureSession(ctx, cdp, session, session.info.TargetID)
	if err != nil {
		return NavResult{}, err
	}

	res, err := cdp.navigate(ctx, sessionID, navURL)
	if err != nil {
		session.mu.Lock()
		session.sessionID = ""
		session.mu.Unlock()
		return NavResult{}, newError(CodeNavigationFailure, "navigate failed", err)
	}
	if res.ErrorText != "" {
		return res, newError(CodeNavigationFailure, "navigation to "+navURL+" failed: "+res.ErrorText, nil)
	}

	if err := c.refreshTabs(ctx); err != nil {
		slog.Warn("cdpprobe tab refresh after navigate failed", "role", role, "error", err)
	}
	return res, nil
}

// WaitReady polls the readiness predicate until it holds or the configured
// timeout expires. Each poll computes the facts fresh; two consecutive calls
// without an intervening navigation agree.
func (c *Client) WaitReady(ctx context.Context, role string) error {
	deadline := time.Now().Add(c.opts.ReadyTimeout)
	var last Readiness
	for {
		var obs Readiness
		err := c.evalOnPanel(ctx, role, jsReadiness(c.opts.AppRootSelector), &obs)
		if err == nil {
			if obs.Ready() {
				return nil
			}
			last = obs
		} else {
			slog.Debug("cdpprobe readiness poll failed", "role", role, "error", err)
		}

		if time.Now().After(deadline) {
			return newError(CodeReadyTimeout,
				fmt.Sprintf("panel %s not ready within %s (root_present=%t root_visible=%t body_has_text=%t)",
					role, c.opts.ReadyTimeout, last.RootPresent, last.RootVisible, last.BodyHasText), nil)
		}
		select {
		case <-time.After(readyPollInterval):
		case <-ctx.Done():
			return newError(CodeReadyTimeout, "readiness wait canceled", ctx.Err())
		}
	}
}

// Resolve finds the control for a label without clicking it. A missing
// control is the coded TAB_NOT_FOUND error; callers decide whether that is
// fatal for the tab in question.
func (c *Client) Resolve(ctx context.Context, role, lbl string) (ControlHandle, error) {
	var out struct {
		Found    bool   `json:"found"`
		Index    int    `json:"index"`
		Strategy string `json:"strategy"`
		Tag      string `json:"tag"`
		Text     string `json:"text"`
		Box      Box    `json:"box"`
		Visible  bool   `json:"visible"`
	}
	if err := c.evalOnPanel(ctx, role, jsResolve(lbl), &out); err != nil {
		return ControlHandle{}, err
	}
	if !out.Found {
		return ControlHandle{}, newError(CodeTabNotFound, "control not found: "+lbl, nil)
	}
	return ControlHandle{
		Label:    lbl,
		Strategy: out.Strategy,
		Index:    out.Index,
		Tag:      out.Tag,
		Text:     out.Text,
		Box:      out.Box,
		Visible:  out.Visible,
	}, nil
}

// Reveal makes sure the label's control is on screen, expanding collapsed
// navigation if needed. Never returns an error: a failure to reveal is
// tolerated and surfaces later as TAB_NOT_FOUND from activation.
func (c *Client) Reveal(ctx context.Context, role, lbl string) {
	for attempt := 0; attempt < maxRevealAttempts; attempt++ {
		var out struct {
			Visible   bool `json:"visible"`
			Clicked   bool `json:"clicked"`
			Exhausted bool `json:"exhausted"`
		}
		if err := c.evalOnPanel(ctx, role, jsRevealStep(lbl, attempt), &out); err != nil {
			slog.Debug("cdpprobe reveal step failed", "role", role, "label", lbl, "error", err)
			return
		}
		if out.Visible {
			return
		}
		if out.Exhausted {
			slog.Debug("cdpprobe reveal exhausted candidates", "role", role, "label", lbl)
			return
		}
		select {
		case <-time.After(revealSettle):
		case <-ctx.Done():
			return
		}
	}
}

// Activate clicks the logical tab and waits for a verifiable transition:
// hash change, aria selected state, or pane-set stabilization, whichever
// fires first. A wait expiring with none of the three is not fatal (tabs
// that mutate shared content produce no signal); the caller decides via the
// pane invariant or content assertions. A final readiness check settles the
// page either way.
func (c *Client) Activate(ctx context.Context, role, lbl string) (Activation, error) {
	c.Reveal(ctx, role, lbl)

	var hashOut struct {
		Hash string `json:"hash"`
	}
	if err := c.evalOnPanel(ctx, role, jsHash(), &hashOut); err != nil {
		return Activation{}, err
	}
	before := hashOut.Hash

	var click struct {
		Found    bool   `json:"found"`
		Index    int    `json:"index"`
		Strategy string `json:"strategy"`
		Covered  bool   `json:"covered"`
		Box      Box    `json:"box"`
	}
	if err := c.evalOnPanel(ctx, role, jsResolveAndClick(lbl), &click); err != nil {
		return Activation{}, err
	}
	if !click.Found {
		return Activation{}, newError(CodeTabNotFound, "control not found: "+lbl, nil)
	}

	act := Activation{
		Label:      lbl,
		Strategy:   click.Strategy,
		HashBefore: before,
	}

	if click.Covered {
		// The element center is occluded; retry once with a trusted click
		// that bypasses pointer-event interception.
		if err := c.forcedClick(ctx, role, click.Box); err != nil {
			slog.Warn("cdpprobe forced click failed", "role", role, "label", lbl, "error", err)
		} else {
			act.ForcedClick = true
		}
	}

	act.Signal, act.HashAfter = c.awaitSignal(ctx, role, lbl, before)

	if err := c.WaitReady(ctx, role); err != nil {
		return act, err
	}
	return act, nil
}

func (c *Client) awaitSignal(ctx context.Context, role, lbl, before string) (signal, hash string) {
	deadline := time.Now().Add(c.opts.ActivateTimeout)
	signal, hash = "none", before
	for {
		var out struct {
			Signal string `json:"signal"`
			Hash   string `json:"hash"`
		}
		if err := c.evalOnPanel(ctx, role, jsActivationSignal(lbl, before, c.opts.PaneClass), &out); err == nil {
			hash = out.Hash
			if out.Signal != "none" {
				return out.Signal, out.Hash
			}
		} else {
			slog.Debug("cdpprobe signal poll failed", "role", role, "label", lbl, "error", err)
		}
		if time.Now().After(deadline) {
			return signal, hash
		}
		select {
		case <-time.After(signalPollInterval):
		case <-ctx.Done():
			return signal, hash
		}
	}
}

func (c *Client) forcedClick(ctx context.Context, role string, box Box) error {
	session, _, err := c.resolvePanelSession(ctx, role)
	if err != nil {
		return err
	}
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}
	sessionID, err := c.ensureSession(ctx, cdp, session, session.info.TargetID)
	if err != nil {
		return err
	}
	x := box.X + box.Width/2
	y := box.Y + box.Height/2
	if err := cdp.dispatchMouseClick(ctx, sessionID, x, y); err != nil {
		return newError(CodeEvalFailure, "failed to dispatch trusted mouse click", err)
	}
	return nil
}

// PaneState snapshots the tabbed container's pane set.
func (c *Client) PaneState(ctx context.Context, role string) (Panes, error) {
	var out Panes
	if err := c.evalOnPanel(ctx, role, jsPaneState(c.opts.PaneClass), &out); err != nil {
		return Panes{}, err
	}
	if out.VisibleIDs == nil {
		out.VisibleIDs = []string{}
	}
	out.Skipped = out.Total == 0
	return out, nil
}

// AssertSinglePane enforces the single-visible-pane invariant: after any
// successful activation, a non-empty pane set has exactly one visible
// member. An empty pane set passes vacuously.
func (c *Client) AssertSinglePane(ctx context.Context, role string) (Panes, error) {
	p, err := c.PaneState(ctx, role)
	if err != nil {
		return Panes{}, err
	}
	if p.Skipped {
		return p, nil
	}
	if p.Visible != 1 {
		return p, newError(CodePaneInvariant,
			fmt.Sprintf("expected exactly 1 visible pane, observed %d of %d [%s]",
				p.Visible, p.Total, strings.Join(p.VisibleIDs, ", ")), nil)
	}
	return p, nil
}

// LockedVisible reports whether an access-denied message is on screen.
func (c *Client) LockedVisible(ctx context.Context, role string) (bool, string, error) {
	var out struct {
		Visible bool   `json:"visible"`
		Text    string `json:"text"`
	}
	if err := c.evalOnPanel(ctx, role, jsLockedMessageVisible(), &out); err != nil {
		return false, "", err
	}
	return out.Visible, out.Text, nil
}

// SaveFeedback reports whether the panel is showing save feedback text.
// settled is true once the "Last updated" line is on screen; a transient
// "Saving…" flash reports visible but not settled.
func (c *Client) SaveFeedback(ctx context.Context, role string) (visible, settled bool, text string, err error) {
	var out struct {
		Visible bool   `json:"visible"`
		Settled bool   `json:"settled"`
		Text    string `json:"text"`
	}
	if err := c.evalOnPanel(ctx, role, jsSaveFeedbackVisible(), &out); err != nil {
		return false, false, "", err
	}
	return out.Visible, out.Settled, out.Text, nil
}

// ToggleFirstCheckbox flips the first checkbox in the active pane. found is
// false when the pane carries no checkbox at all.
func (c *Client) ToggleFirstCheckbox(ctx context.Context, role string) (found, checked bool, err error) {
	var out struct {
		Found   bool `json:"found"`
		Checked bool `json:"checked"`
	}
	if err := c.evalOnPanel(ctx, role, jsToggleFirstCheckbox(c.opts.PaneClass), &out); err != nil {
		return false, false, err
	}
	return out.Found, out.Checked, nil
}

// Hash reads the role panel's current URL fragment.
func (c *Client) Hash(ctx context.Context, role string) (string, error) {
	var out struct {
		Hash string `json:"hash"`
	}
	if err := c.evalOnPanel(ctx, role, jsHash(), &out); err != nil {
		return "", err
	}
	return out.Hash, nil
}

func (c *Client) evalOnPanel(ctx context.Context, role, js string, out any) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return newError(CodePanelNotFound, "role is required", nil)
	}

	// First attempt.
	session, info, err := c.resolvePanelSession(ctx, role)
	if err != nil {
		slog.Warn("cdpprobe panel resolve failed", "role", role, "error", err)
	} else {
		err = c.evalOnSession(ctx, session, info.TargetID, js, out)
	}
	if err == nil {
		return nil
	}
	if !c.shouldRetry(err) {
		return err
	}

	// Retry after recovery.
	slog.Warn("cdpprobe eval retry after transient failure", "role", role, "error", err)
	if c.asCode(err, CodeCDPUnavailable) {
		if recErr := c.reconnect(ctx); recErr != nil {
			slog.Error("cdpprobe reconnect failed during retry", "role", role, "error", recErr)
			return recErr
		}
	} else {
		if syncErr := c.refreshTabs(ctx); syncErr != nil {
			slog.Warn("cdpprobe tab refresh failed during retry", "role", role, "error", syncErr)
		}
	}

	session, info, err = c.resolvePanelSession(ctx, role)
	if err != nil {
		slog.Warn("cdpprobe panel resolve failed (retry)", "role", role, "error", err)
		return err
	}
	return c.evalOnSession(ctx, session, info.TargetID, js, out)
}

func (c *Client) evalOnSession(ctx context.Context, session *tabSession, targetID, js string, out any) error {
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	sessionID, err := c.ensureSession(ctx, cdp, session, targetID)
	if err != nil {
		return err
	}

	evalCtx, evalCancel := context.WithTimeout(ctx, c.opts.EvalTimeout)
	defer evalCancel()

	raw, err := cdp.evaluate(evalCtx, sessionID, js)
	if err != nil {
		slog.Warn("cdpprobe eval failed", "target_id", targetID, "error", err)
		// Reset session so a fresh attach happens on retry.
		session.mu.Lock()
		session.sessionID = ""
		session.mu.Unlock()

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			return newError(CodeEvalTimeout, "evaluation timed out", err)
		}
		return newError(CodeEvalFailure, "evaluation failed", err)
	}

	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation envelope", err)
	}
	if !env.OK {
		code := env.ErrorCode
		if code == "" {
			code = CodeEvalFailure
		}
		return newError(code, env.ErrorMessage, nil)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation data", err)
	}
	return nil
}

// ensureSession returns a CDP session ID for the target, attaching if needed.
func (c *Client) ensureSession(ctx context.Context, cdp *rawCDP, session *tabSession, targetID string) (string, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.sessionID != "" {
		return session.sessionID, nil
	}

	sid, err := cdp.attachToTarget(ctx, targetID)
	if err != nil {
		return "", newError(CodeCDPUnavailable, "attach to target failed", err)
	}
	session.sessionID = sid
	slog.Debug("cdpprobe session attached", "target_id", targetID, "session_id", sid)
	return sid, nil
}

func (c *Client) resolvePanelSession(ctx context.Context, role string) (*tabSession, PanelInfo, error) {
	session, info, found := c.lookupPanelSession(role)
	if found {
		return session, info, nil
	}

	if err := c.refreshTabs(ctx); err != nil {
		return nil, PanelInfo{}, err
	}

	session, info, found = c.lookupPanelSession(role)
	if found {
		return session, info, nil
	}

	return nil, PanelInfo{}, newError(CodePanelNotFound, "no open tab for role: "+role, nil)
}

func (c *Client) lookupPanelSession(role string) (*tabSession, PanelInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	targetID, ok := c.roleToTarget[role]
	if !ok {
		return nil, PanelInfo{}, false
	}
	session := c.tabs[targetID]
	if session == nil {
		return nil, PanelInfo{}, false
	}
	return session, session.info, true
}

func (c *Client) refreshTabs(ctx context.Context) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	err := c.syncTabsLocked(ctx)
	c.mu.Unlock()
	if err == nil {
		return nil
	}

	return newError(CodeCDPUnavailable, "failed to list targets", err)
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) syncTabsLocked(ctx context.Context) error {
	if c.cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	targets, err := c.cdp.listTargets(ctx)
	if err != nil {
		return err
	}

	expected := make(map[target.ID]PanelInfo)
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if c.tabFilter != "" && !strings.Contains(strings.ToLower(t.URL), c.tabFilter) {
			continue
		}
		role := c.roleFromURL(t.URL)
		if role == "" {
			continue
		}
		expected[t.TargetID] = PanelInfo{
			Role:     role,
			TargetID: string(t.TargetID),
			URL:      t.URL,
			Title:    t.Title,
		}
	}

	for targetID := range c.tabs {
		if _, ok := expected[targetID]; ok {
			continue
		}
		delete(c.tabs, targetID)
	}

	for targetID, info := range expected {
		session := c.tabs[targetID]
		if session != nil {
			session.info = info
			continue
		}
		c.tabs[targetID] = &tabSession{info: info}
	}

	c.roleToTarget = make(map[string]target.ID, len(c.tabs))
	for targetID, session := range c.tabs {
		if session == nil {
			continue
		}
		c.roleToTarget[session.info.Role] = targetID
	}

	// Prune panel locks for roles no longer present.
	c.panelLocksMu.Lock()
	for role := range c.panelLocks {
		if _, ok := c.roleToTarget[role]; !ok {
			delete(c.panelLocks, role)
		}
	}
	c.panelLocksMu.Unlock()

	slog.Debug("cdpprobe tab sync", "targets", len(targets), "panels", len(c.roleToTarget))
	return nil
}

func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	connected := c.cdp != nil
	c.mu.Unlock()
	if connected {
		return nil
	}
	return c.reconnect(ctx)
}

func (c *Client) panelLock(role string) *sync.Mutex {
	c.panelLocksMu.Lock()
	defer c.panelLocksMu.Unlock()
	m, ok := c.panelLocks[role]
	if !ok {
		m = &sync.Mutex{}
		c.panelLocks[role] = m
	}
	return m
}

func (c *Client) shouldRetry(err error) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}

	switch coded.Code {
	case CodeCDPUnavailable:
		return true
	case CodePanelNotFound, CodeTabNotFound:
		return false
	case CodeEvalFailure:
		if coded.Cause == nil {
			return false
		}
		cause := strings.ToLower(coded.Cause.Error())
		for _, hint := range transientHints {
			if strings.Contains(cause, hint) {
				return true
			}
		}
	}
	return false
}

func (c *Client) asCode(err error, code string) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}

// roleFromURL maps a tab URL to a configured role by path prefix; the
// longest matching prefix wins so a "/" fan path does not shadow "/admin".
func (c *Client) roleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	bestRole, bestLen := "", -1
	for role, prefix := range c.rolePaths {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(path, prefix) && len(prefix) > bestLen {
			bestRole, bestLen = role, len(prefix)
		}
	}
	return bestRole
}
