// Package probe composes the active CDP client, the passive watcher, and
// the app's test hooks into one service. The scenario runner and the
// control API both sit on top of it.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baysah/panel_agent/internal/cdpprobe"
	"github.com/baysah/panel_agent/internal/config"
	"github.com/baysah/panel_agent/internal/hooks"
	"github.com/baysah/panel_agent/internal/metrics"
	"github.com/baysah/panel_agent/internal/watch"
)

// Prober is the probe surface the scenario runner depends on. The live
// implementation is Service; scenario tests use a fake.
type Prober interface {
	Panels(ctx context.Context) ([]cdpprobe.PanelInfo, error)
	Navigate(ctx context.Context, role string) (cdpprobe.NavResult, error)
	WaitReady(ctx context.Context, role string) error
	Resolve(ctx context.Context, role, label string) (cdpprobe.ControlHandle, error)
	Activate(ctx context.Context, role, label string) (cdpprobe.Activation, error)
	PaneState(ctx context.Context, role string) (cdpprobe.Panes, error)
	AssertSinglePane(ctx context.Context, role string) (cdpprobe.Panes, error)
	LockedVisible(ctx context.Context, role string) (bool, string, error)
	SaveFeedback(ctx context.Context, role string) (visible, settled bool, text string, err error)
	ToggleFirstCheckbox(ctx context.Context, role string) (found, checked bool, err error)
	Hash(ctx context.Context, role string) (string, error)

	Errors(role string) []watch.ErrorEntry
	ResetErrors(role string)
	RecentRequests(role string) []watch.RequestEvent
	WaitRequest(ctx context.Context, role string, pred watch.Predicate, timeout time.Duration) (watch.RequestEvent, bool)
}

// Service is the live Prober over a running browser.
type Service struct {
	cfg     *config.Config
	client  *cdpprobe.Client
	watcher *watch.Watcher
	hooks   *hooks.Client
	metrics *metrics.Metrics
}

func NewService(cfg *config.Config, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New()
	}
	s := &Service{
		cfg: cfg,
		client: cdpprobe.NewClient(cfg.GetCDPURL(), cfg.TabURLFilter, cfg.RolePaths(), cdpprobe.Options{
			EvalTimeout:     time.Duration(cfg.EvalTimeoutMS) * time.Millisecond,
			ReadyTimeout:    time.Duration(cfg.ReadyTimeoutMS) * time.Millisecond,
			ActivateTimeout: time.Duration(cfg.ActivateTimeoutMS) * time.Millisecond,
			AppRootSelector: cfg.AppRootSelector,
			PaneClass:       cfg.PaneClass,
		}),
		watcher: watch.NewWatcher(cfg.GetCDPURL(), cfg.TabURLFilter, cfg.RolePaths(), cfg.RequestWindow),
		hooks:   hooks.NewClient(cfg.BaseURL, cfg.TestToken, nil),
		metrics: m,
	}
	s.watcher.Errors.SetObserver(func(e watch.ErrorEntry) {
		m.CapturedErrors.WithLabelValues(e.Role, e.Tag).Inc()
	})
	return s
}

// Start connects the active client and the passive watcher. The watcher is
// optional at start: probing works without it, only error/request capture
// degrades, so its failure is a warning, not a hard stop.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		return err
	}
	if err := s.watcher.Connect(ctx); err != nil {
		slog.Warn("passive watcher unavailable, error capture disabled", "error", err)
	}
	return nil
}

func (s *Service) Close() error {
	err := s.watcher.Close()
	if cerr := s.client.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Hooks returns the test-hook client for the app under test.
func (s *Service) Hooks() *hooks.Client { return s.hooks }

// Metrics returns the counter set this service feeds.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

func (s *Service) Panels(ctx context.Context) ([]cdpprobe.PanelInfo, error) {
	return s.client.ListPanels(ctx)
}

// Navigate points the role panel at its configured URL.
func (s *Service) Navigate(ctx context.Context, role string) (cdpprobe.NavResult, error) {
	navURL := s.cfg.RoleURL(role)
	if navURL == "" {
		return cdpprobe.NavResult{}, &cdpprobe.CodedError{
			Code:    cdpprobe.CodeValidation,
			Message: "no URL configured for role: " + role,
		}
	}
	return s.client.Navigate(ctx, role, navURL)
}

func (s *Service) WaitReady(ctx context.Context, role string) error {
	err := s.client.WaitReady(ctx, role)
	if isCode(err, cdpprobe.CodeReadyTimeout) {
		s.metrics.ReadyTimeouts.WithLabelValues(role).Inc()
	}
	return err
}

func (s *Service) Resolve(ctx context.Context, role, label string) (cdpprobe.ControlHandle, error) {
	return s.client.Resolve(ctx, role, label)
}

func (s *Service) Activate(ctx context.Context, role, label string) (cdpprobe.Activation, error) {
	act, err := s.client.Activate(ctx, role, label)
	if err == nil {
		s.metrics.Activations.WithLabelValues(role, act.Signal).Inc()
	}
	return act, err
}

func (s *Service) PaneState(ctx context.Context, role string) (cdpprobe.Panes, error) {
	return s.client.PaneState(ctx, role)
}

func (s *Service) AssertSinglePane(ctx context.Context, role string) (cdpprobe.Panes, error) {
	p, err := s.client.AssertSinglePane(ctx, role)
	if isCode(err, cdpprobe.CodePaneInvariant) {
		s.metrics.PaneViolations.WithLabelValues(role).Inc()
	}
	return p, err
}

func (s *Service) LockedVisible(ctx context.Context, role string) (bool, string, error) {
	return s.client.LockedVisible(ctx, role)
}

func (s *Service) SaveFeedback(ctx context.Context, role string) (bool, bool, string, error) {
	return s.client.SaveFeedback(ctx, role)
}

func (s *Service) ToggleFirstCheckbox(ctx context.Context, role string) (bool, bool, error) {
	return s.client.ToggleFirstCheckbox(ctx, role)
}

func (s *Service) Hash(ctx context.Context, role string) (string, error) {
	return s.client.Hash(ctx, role)
}

func (s *Service) Errors(role string) []watch.ErrorEntry {
	return s.watcher.Errors.Snapshot(role)
}

func (s *Service) ResetErrors(role string) {
	s.watcher.Errors.Reset(role)
}

func (s *Service) RecentRequests(role string) []watch.RequestEvent {
	return s.watcher.Requests.Recent(role)
}

func (s *Service) WaitRequest(ctx context.Context, role string, pred watch.Predicate, timeout time.Duration) (watch.RequestEvent, bool) {
	return s.watcher.Requests.Wait(ctx, role, pred, timeout)
}

func isCode(err error, code string) bool {
	var coded *cdpprobe.CodedError
	return errors.As(err, &coded) && coded.Code == code
}
