package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/baysah/panel_agent/internal/cdpprobe"
)

func registerPanelHandlers(api huma.API, svc Service) {
	type panelsOutput struct {
		Body struct {
			Panels []cdpprobe.PanelInfo `json:"panels"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-panels", Method: http.MethodGet, Path: "/api/v1/panels", Summary: "List discovered panel tabs", Tags: []string{"Panels"}},
		func(ctx context.Context, input *struct{}) (*panelsOutput, error) {
			panels, err := svc.Panels(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &panelsOutput{}
			out.Body.Panels = panels
			return out, nil
		})

	type navigateOutput struct {
		Body cdpprobe.NavResult
	}
	huma.Register(api, huma.Operation{OperationID: "navigate-panel", Method: http.MethodPost, Path: "/api/v1/panel/{role}/navigate", Summary: "Navigate the panel to its configured URL", Tags: []string{"Panels"}},
		func(ctx context.Context, input *roleInput) (*navigateOutput, error) {
			nav, err := svc.Navigate(ctx, input.Role)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &navigateOutput{}
			out.Body = nav
			return out, nil
		})

	type readyOutput struct {
		Body struct {
			Role   string `json:"role"`
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "wait-ready", Method: http.MethodPost, Path: "/api/v1/panel/{role}/ready", Summary: "Wait until the panel UI is ready", Tags: []string{"Panels"}},
		func(ctx context.Context, input *roleInput) (*readyOutput, error) {
			if err := svc.WaitReady(ctx, input.Role); err != nil {
				return nil, mapErr(err)
			}
			out := &readyOutput{}
			out.Body.Role = input.Role
			out.Body.Status = "ready"
			return out, nil
		})

	type resolveOutput struct {
		Body cdpprobe.ControlHandle
	}
	huma.Register(api, huma.Operation{OperationID: "resolve-tab", Method: http.MethodGet, Path: "/api/v1/panel/{role}/tab/{label}/resolve", Summary: "Resolve a tab label to a control without clicking", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *roleLabelInput) (*resolveOutput, error) {
			handle, err := svc.Resolve(ctx, input.Role, input.Label)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &resolveOutput{}
			out.Body = handle
			return out, nil
		})

	type activateOutput struct {
		Body cdpprobe.Activation
	}
	huma.Register(api, huma.Operation{OperationID: "activate-tab", Method: http.MethodPost, Path: "/api/v1/panel/{role}/tab/{label}/activate", Summary: "Reveal, resolve and click a tab, then wait for the activation signal", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *roleLabelInput) (*activateOutput, error) {
			act, err := svc.Activate(ctx, input.Role, input.Label)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &activateOutput{}
			out.Body = act
			return out, nil
		})

	type panesInput struct {
		Role   string `path:"role" doc:"Panel role: admin, manager or fan"`
		Assert bool   `query:"assert" doc:"Fail with 409 when more than one pane is visible"`
	}
	type panesOutput struct {
		Body struct {
			Panes cdpprobe.Panes `json:"panes"`
			OK    bool           `json:"ok"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "pane-state", Method: http.MethodGet, Path: "/api/v1/panel/{role}/panes", Summary: "Report pane visibility and the single-pane verdict", Tags: []string{"Panels"}},
		func(ctx context.Context, input *panesInput) (*panesOutput, error) {
			if input.Assert {
				panes, err := svc.AssertSinglePane(ctx, input.Role)
				if err != nil {
					return nil, mapErr(err)
				}
				out := &panesOutput{}
				out.Body.Panes = panes
				out.Body.OK = true
				return out, nil
			}
			panes, err := svc.PaneState(ctx, input.Role)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &panesOutput{}
			out.Body.Panes = panes
			out.Body.OK = panes.Skipped || panes.Visible == 1
			return out, nil
		})
}
