package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/baysah/panel_agent/internal/cdpprobe"
	"github.com/baysah/panel_agent/internal/hooks"
	"github.com/baysah/panel_agent/internal/scenario"
	"github.com/baysah/panel_agent/internal/watch"
)

// Service is the probe surface the control API exposes over HTTP. The live
// implementation is probe.Service.
type Service interface {
	Panels(ctx context.Context) ([]cdpprobe.PanelInfo, error)
	Navigate(ctx context.Context, role string) (cdpprobe.NavResult, error)
	WaitReady(ctx context.Context, role string) error
	Resolve(ctx context.Context, role, label string) (cdpprobe.ControlHandle, error)
	Activate(ctx context.Context, role, label string) (cdpprobe.Activation, error)
	PaneState(ctx context.Context, role string) (cdpprobe.Panes, error)
	AssertSinglePane(ctx context.Context, role string) (cdpprobe.Panes, error)
	Errors(role string) []watch.ErrorEntry
	ResetErrors(role string)
	RecentRequests(role string) []watch.RequestEvent
}

// Hooks is the slice of the test-hook client the API exposes.
type Hooks interface {
	Reset(ctx context.Context) error
	SeedQueueItem(ctx context.Context, itemType, title string) (string, error)
}

// ScenarioRunner runs one scenario and reports the rolled-up result.
type ScenarioRunner interface {
	Run(ctx context.Context, sc scenario.Scenario) scenario.RunResult
}

// Deps bundles everything the control API serves.
type Deps struct {
	Probe   Service
	Hooks   Hooks
	Runner  ScenarioRunner
	Suite   *scenario.Suite
	Metrics http.Handler
}

type roleInput struct {
	Role string `path:"role" doc:"Panel role: admin, manager or fan"`
}

type roleLabelInput struct {
	Role  string `path:"role" doc:"Panel role: admin, manager or fan"`
	Label string `path:"label" doc:"Tab label, e.g. 'AI Queue' or 'ai-queue'"`
}

func NewServer(d Deps) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Panel Agent Controller API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	if d.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	registerPanelHandlers(api, d.Probe)
	registerWatchHandlers(api, d.Probe)
	registerHookHandlers(api, d.Hooks)
	registerScenarioHandlers(api, d.Runner, d.Suite)
	registerHealthHandlers(api, d.Probe)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var hookFail *hooks.Failure
	if errors.As(err, &hookFail) {
		return huma.Error502BadGateway("HOOK_FAILURE: " + hookFail.Error())
	}
	var coded *cdpprobe.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case cdpprobe.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case cdpprobe.CodePanelNotFound, cdpprobe.CodeTabNotFound:
			return huma.Error404NotFound(coded.Message)
		case cdpprobe.CodePaneInvariant:
			return huma.Error409Conflict(coded.Message)
		case cdpprobe.CodeReadyTimeout, cdpprobe.CodeEvalTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case cdpprobe.CodeCDPUnavailable, cdpprobe.CodeNavigationFailure:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
