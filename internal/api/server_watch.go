package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/baysah/panel_agent/internal/watch"
)

func registerWatchHandlers(api huma.API, svc Service) {
	type errorsOutput struct {
		Body struct {
			Role   string             `json:"role"`
			Errors []watch.ErrorEntry `json:"errors"`
			Count  int                `json:"count"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-errors", Method: http.MethodGet, Path: "/api/v1/panel/{role}/errors", Summary: "Captured page errors for the panel, in capture order", Tags: []string{"Watch"}},
		func(ctx context.Context, input *roleInput) (*errorsOutput, error) {
			entries := svc.Errors(input.Role)
			out := &errorsOutput{}
			out.Body.Role = input.Role
			out.Body.Errors = entries
			out.Body.Count = len(entries)
			return out, nil
		})

	type resetErrorsOutput struct {
		Body struct {
			Role   string `json:"role"`
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "reset-errors", Method: http.MethodDelete, Path: "/api/v1/panel/{role}/errors", Summary: "Clear the captured error log for the panel", Tags: []string{"Watch"}},
		func(ctx context.Context, input *roleInput) (*resetErrorsOutput, error) {
			svc.ResetErrors(input.Role)
			out := &resetErrorsOutput{}
			out.Body.Role = input.Role
			out.Body.Status = "reset"
			return out, nil
		})

	type requestsInput struct {
		Role  string `path:"role" doc:"Panel role: admin, manager or fan"`
		Match string `query:"match" doc:"Substring filter applied to request URLs"`
	}
	type requestsOutput struct {
		Body struct {
			Role     string               `json:"role"`
			Requests []watch.RequestEvent `json:"requests"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-requests", Method: http.MethodGet, Path: "/api/v1/panel/{role}/requests", Summary: "Recently observed network requests for the panel", Tags: []string{"Watch"}},
		func(ctx context.Context, input *requestsInput) (*requestsOutput, error) {
			events := svc.RecentRequests(input.Role)
			if input.Match != "" {
				filtered := events[:0:0]
				for _, ev := range events {
					if strings.Contains(ev.URL, input.Match) {
						filtered = append(filtered, ev)
					}
				}
				events = filtered
			}
			out := &requestsOutput{}
			out.Body.Role = input.Role
			out.Body.Requests = events
			return out, nil
		})
}
