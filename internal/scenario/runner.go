package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baysah/panel_agent/internal/cdpprobe"
	"github.com/baysah/panel_agent/internal/label"
	"github.com/baysah/panel_agent/internal/metrics"
	"github.com/baysah/panel_agent/internal/probe"
	"github.com/baysah/panel_agent/internal/storage"
	"github.com/baysah/panel_agent/internal/watch"
)

// Outcomes of a scenario or step.
const (
	OutcomePass = "PASS"
	OutcomeFail = "FAIL"
	OutcomeSkip = "SKIP"
)

// HookClient is the slice of the hooks surface the runner uses; the live
// implementation is hooks.Client.
type HookClient interface {
	Reset(ctx context.Context) error
	SeedQueueItem(ctx context.Context, itemType, title string) (string, error)
	PollState(ctx context.Context) (json.RawMessage, int, error)
}

// StepResult is one transcript line.
type StepResult struct {
	Step    string `json:"step"`
	Label   string `json:"label,omitempty"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// RunResult is the rolled-up outcome of one scenario run.
type RunResult struct {
	Scenario string             `json:"scenario"`
	Role     string             `json:"role"`
	Session  Session            `json:"session"`
	Outcome  string             `json:"outcome"`
	Reason   string             `json:"reason,omitempty"`
	Steps    []StepResult       `json:"steps"`
	Errors   []watch.ErrorEntry `json:"errors,omitempty"`
}

// Runner executes scenarios against a Prober. Registry and Metrics are
// optional; a nil registry disables transcript artifacts.
type Runner struct {
	Prober   probe.Prober
	Hooks    HookClient
	Registry *storage.WriterRegistry
	Metrics  *metrics.Metrics

	// RoleConfigured reports whether the environment carries a target URL
	// (and key) for a role. Absence is SKIP, or FAIL for strict scenarios.
	RoleConfigured func(role string) bool

	// Strict promotes every scenario's missing-environment outcome to FAIL.
	Strict bool
}

const (
	toggleWatchTimeout  = 5 * time.Second
	saveFeedbackTimeout = 3 * time.Second
)

// RunSuite executes every scenario in order. Scenarios never share a run
// session; each gets a fresh error window.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) []RunResult {
	results := make([]RunResult, 0, len(suite.Scenarios))
	for _, sc := range suite.Scenarios {
		results = append(results, r.Run(ctx, sc))
	}
	return results
}

// Run executes one scenario to a terminal PASS, FAIL, or SKIP.
func (r *Runner) Run(ctx context.Context, sc Scenario) (out RunResult) {
	session := NewSession(sc.Role)
	res := &RunResult{
		Scenario: sc.Name,
		Role:     sc.Role,
		Session:  session,
		Outcome:  OutcomePass,
	}
	defer func() {
		r.finish(sc, res)
		out = *res
	}()

	slog.Info("scenario start", "scenario", sc.Name, "role", sc.Role, "session", session.ID)

	if r.RoleConfigured != nil && !r.RoleConfigured(sc.Role) {
		if sc.Strict || r.Strict {
			r.failf(res, "environment", "", "missing target URL or key for role %s", sc.Role)
		} else {
			res.Outcome = OutcomeSkip
			res.Reason = fmt.Sprintf("missing target URL or key for role %s", sc.Role)
			r.step(res, StepResult{Step: "environment", Outcome: OutcomeSkip, Detail: res.Reason})
		}
		return *res
	}

	// Fresh error window per run.
	r.Prober.ResetErrors(sc.Role)

	if sc.Reset {
		if err := r.Hooks.Reset(ctx); err != nil {
			r.failf(res, "reset", "", "reset hook failed: %v", err)
			return *res
		}
		r.step(res, StepResult{Step: "reset", Outcome: OutcomePass})
	}

	if sc.Seed != nil {
		id, err := r.Hooks.SeedQueueItem(ctx, sc.Seed.Type, sc.Seed.Title)
		if err != nil {
			r.failf(res, "seed", "", "seed hook failed: %v", err)
			return *res
		}
		r.step(res, StepResult{Step: "seed", Outcome: OutcomePass, Detail: "id=" + id})
	}

	if !r.navigateAndSettle(ctx, sc, res) {
		return *res
	}

	for _, tab := range sc.Tabs {
		if tab.Restricted {
			if !r.restrictedTab(ctx, sc, tab, res) {
				return *res
			}
			continue
		}
		if !r.walkTab(ctx, sc, tab, res) {
			return *res
		}
	}

	if sc.OpsToggle && !r.opsToggle(ctx, sc, res) {
		return *res
	}

	if sc.Reload && !r.reload(ctx, sc, res) {
		return *res
	}

	if sc.CheckPoll {
		_, status, err := r.Hooks.PollState(ctx)
		if err != nil {
			r.failf(res, "poll", "", "poll state contract violated: %v", err)
			return *res
		}
		r.step(res, StepResult{Step: "poll", Outcome: OutcomePass, Detail: fmt.Sprintf("status=%d", status)})
	}

	// Terminal assertion: the run must not have produced page faults.
	if captured := r.Prober.Errors(sc.Role); len(captured) > 0 {
		res.Errors = captured
		r.failf(res, "error-log", "", "%d page error(s) captured during run", len(captured))
		return *res
	}
	r.step(res, StepResult{Step: "error-log", Outcome: OutcomePass, Detail: "empty"})

	return *res
}

func (r *Runner) navigateAndSettle(ctx context.Context, sc Scenario, res *RunResult) bool {
	// The request window outlives scenarios; only traffic observed after
	// this navigation counts against it.
	navStart := time.Now()

	nav, err := r.Prober.Navigate(ctx, sc.Role)
	if err != nil {
		r.failf(res, "navigate", "", "navigation failed: %v", err)
		return false
	}
	r.step(res, StepResult{Step: "navigate", Outcome: OutcomePass, Detail: nav.URL})

	if err := r.Prober.WaitReady(ctx, sc.Role); err != nil {
		r.failf(res, "ready", "", "panel never became ready: %v", err)
		return false
	}
	r.step(res, StepResult{Step: "ready", Outcome: OutcomePass})

	// A page that loaded with a server error still renders something; the
	// request watcher is the reliable witness.
	for _, ev := range r.Prober.RecentRequests(sc.Role) {
		if ev.Time.Before(navStart) {
			continue
		}
		if ev.Status >= 500 {
			r.failf(res, "navigate", "", "request %s %s returned HTTP %d", ev.Method, ev.URL, ev.Status)
			return false
		}
	}
	return true
}

func (r *Runner) walkTab(ctx context.Context, sc Scenario, tab Tab, res *RunResult) bool {
	act, err := r.Prober.Activate(ctx, sc.Role, tab.Label)
	if err != nil {
		if isCode(err, cdpprobe.CodeTabNotFound) {
			if tab.Required {
				r.failf(res, "activate", tab.Label, "required tab not found: %s", tab.Label)
				return false
			}
			r.step(res, StepResult{Step: "activate", Label: tab.Label, Outcome: OutcomeSkip, Detail: "optional tab not found"})
			return true
		}
		r.failf(res, "activate", tab.Label, "activation failed: %v", err)
		return false
	}
	r.step(res, StepResult{Step: "activate", Label: tab.Label, Outcome: OutcomePass, Detail: "signal=" + act.Signal})

	return r.paneCheck(ctx, sc, tab, res)
}

func (r *Runner) paneCheck(ctx context.Context, sc Scenario, tab Tab, res *RunResult) bool {
	deadline := time.Now().Add(time.Duration(tab.PaneWaitMS) * time.Millisecond)
	for {
		panes, err := r.Prober.AssertSinglePane(ctx, sc.Role)
		if err == nil {
			detail := fmt.Sprintf("visible=%d/%d", panes.Visible, panes.Total)
			if panes.Skipped {
				detail = "no pane set (vacuous)"
			}
			r.step(res, StepResult{Step: "panes", Label: tab.Label, Outcome: OutcomePass, Detail: detail})
			return true
		}
		if !isCode(err, cdpprobe.CodePaneInvariant) {
			r.failf(res, "panes", tab.Label, "pane check failed: %v", err)
			return false
		}
		if time.Now().After(deadline) {
			r.failf(res, "panes", tab.Label, "%v", err)
			return false
		}
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			r.failf(res, "panes", tab.Label, "pane wait canceled: %v", ctx.Err())
			return false
		}
	}
}

// restrictedTab verifies access-control asymmetry: for this role the
// passing outcomes are NotFound, an unchanged hash, or a locked message.
// The only failure is the restricted pane becoming the sole visible pane.
func (r *Runner) restrictedTab(ctx context.Context, sc Scenario, tab Tab, res *RunResult) bool {
	before, err := r.Prober.Hash(ctx, sc.Role)
	if err != nil {
		r.failf(res, "restricted", tab.Label, "hash read failed: %v", err)
		return false
	}

	_, err = r.Prober.Activate(ctx, sc.Role, tab.Label)
	if err != nil {
		if isCode(err, cdpprobe.CodeTabNotFound) {
			r.step(res, StepResult{Step: "restricted", Label: tab.Label, Outcome: OutcomePass, Detail: "not found for this role"})
			return true
		}
		r.failf(res, "restricted", tab.Label, "activation failed: %v", err)
		return false
	}

	panes, err := r.Prober.PaneState(ctx, sc.Role)
	if err != nil {
		r.failf(res, "restricted", tab.Label, "pane read failed: %v", err)
		return false
	}
	if panes.Visible == 1 {
		for _, id := range panes.VisibleIDs {
			if label.ContainsFold(id, tab.Fragment) {
				r.failf(res, "restricted", tab.Label,
					"restricted pane %q is visible for role %s", id, sc.Role)
				return false
			}
		}
	}

	if locked, msg, err := r.Prober.LockedVisible(ctx, sc.Role); err == nil && locked {
		r.step(res, StepResult{Step: "restricted", Label: tab.Label, Outcome: OutcomePass, Detail: "locked message: " + msg})
		return true
	}

	after, err := r.Prober.Hash(ctx, sc.Role)
	if err == nil && after == before {
		r.step(res, StepResult{Step: "restricted", Label: tab.Label, Outcome: OutcomePass, Detail: "hash unchanged"})
		return true
	}

	// The click moved the page but not onto the restricted pane; the walk
	// did not breach access control.
	r.step(res, StepResult{Step: "restricted", Label: tab.Label, Outcome: OutcomePass, Detail: "no restricted pane shown"})
	return true
}

func (r *Runner) opsToggle(ctx context.Context, sc Scenario, res *RunResult) bool {
	found, checked, err := r.Prober.ToggleFirstCheckbox(ctx, sc.Role)
	if err != nil {
		r.failf(res, "toggle", "", "toggle failed: %v", err)
		return false
	}
	if !found {
		r.failf(res, "toggle", "", "active pane carries no checkbox to toggle")
		return false
	}
	r.step(res, StepResult{Step: "toggle", Outcome: OutcomePass, Detail: fmt.Sprintf("checked=%t", checked)})

	fragment := sc.ToggleWatch
	pred := func(ev watch.RequestEvent) bool {
		return strings.EqualFold(ev.Method, "POST") &&
			strings.Contains(ev.URL, fragment) &&
			ev.Status > 0 && ev.Status < 400
	}
	ev, ok := r.Prober.WaitRequest(ctx, sc.Role, pred, toggleWatchTimeout)
	if !ok {
		r.failf(res, "save-request", "", "no POST matching %q with status < 400 observed", fragment)
		return false
	}
	r.step(res, StepResult{Step: "save-request", Outcome: OutcomePass, Detail: fmt.Sprintf("%s %s -> %d", ev.Method, ev.URL, ev.Status)})

	return r.saveFeedback(ctx, sc, res)
}

// saveFeedback polls for the on-screen save confirmation. The transient
// "Saving…" flash may be gone before we look; only the settled "Last
// updated" line is required.
func (r *Runner) saveFeedback(ctx context.Context, sc Scenario, res *RunResult) bool {
	deadline := time.Now().Add(saveFeedbackTimeout)
	for {
		visible, settled, text, err := r.Prober.SaveFeedback(ctx, sc.Role)
		if err != nil {
			r.failf(res, "save-feedback", "", "feedback read failed: %v", err)
			return false
		}
		if visible && settled {
			r.step(res, StepResult{Step: "save-feedback", Outcome: OutcomePass, Detail: text})
			return true
		}
		if time.Now().After(deadline) {
			r.failf(res, "save-feedback", "", "no save confirmation shown within %s", saveFeedbackTimeout)
			return false
		}
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			r.failf(res, "save-feedback", "", "feedback wait canceled: %v", ctx.Err())
			return false
		}
	}
}

func (r *Runner) reload(ctx context.Context, sc Scenario, res *RunResult) bool {
	if !r.navigateAndSettle(ctx, sc, res) {
		return false
	}
	tab := Tab{Label: sc.Reactivate, Required: true}
	return r.walkTab(ctx, sc, tab, res)
}

func (r *Runner) step(res *RunResult, s StepResult) {
	res.Steps = append(res.Steps, s)
}

func (r *Runner) failf(res *RunResult, step, lbl, format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	res.Outcome = OutcomeFail
	res.Reason = detail
	r.step(res, StepResult{Step: step, Label: lbl, Outcome: OutcomeFail, Detail: detail})
}

func (r *Runner) finish(sc Scenario, res *RunResult) {
	// A failing run reproduces the full captured log even when the failure
	// was not the error-log assertion itself.
	if res.Outcome == OutcomeFail && len(res.Errors) == 0 {
		res.Errors = r.Prober.Errors(sc.Role)
	}

	if r.Metrics != nil {
		r.Metrics.ScenarioRuns.WithLabelValues(sc.Role, strings.ToLower(res.Outcome)).Inc()
	}

	if r.Registry != nil {
		w := r.Registry.GetWriter("transcripts", sc.Role, res.Session.ID)
		if err := w.Write(res); err != nil {
			slog.Warn("failed to persist transcript", "scenario", sc.Name, "error", err)
		}
	}

	slog.Info("scenario finished",
		"scenario", sc.Name,
		"role", sc.Role,
		"outcome", res.Outcome,
		"steps", len(res.Steps),
		"reason", res.Reason)
}

func isCode(err error, code string) bool {
	var coded *cdpprobe.CodedError
	return errors.As(err, &coded) && coded.Code == code
}
