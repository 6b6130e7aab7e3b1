package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func registerHookHandlers(api huma.API, hk Hooks) {
	type resetOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "hooks-reset", Method: http.MethodPost, Path: "/api/v1/hooks/reset", Summary: "Reset the app under test to its seeded baseline", Tags: []string{"Hooks"}},
		func(ctx context.Context, input *struct{}) (*resetOutput, error) {
			if hk == nil {
				return nil, huma.Error502BadGateway("test hooks not configured")
			}
			if err := hk.Reset(ctx); err != nil {
				return nil, mapErr(err)
			}
			out := &resetOutput{}
			out.Body.Status = "reset"
			return out, nil
		})

	type seedInput struct {
		Body struct {
			Type  string `json:"type" doc:"Queue item type, e.g. reply_draft"`
			Title string `json:"title" doc:"Queue item title"`
		}
	}
	type seedOutput struct {
		Body struct {
			ID string `json:"id"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "hooks-seed", Method: http.MethodPost, Path: "/api/v1/hooks/seed", Summary: "Seed one AI queue item in the app under test", Tags: []string{"Hooks"}},
		func(ctx context.Context, input *seedInput) (*seedOutput, error) {
			if hk == nil {
				return nil, huma.Error502BadGateway("test hooks not configured")
			}
			id, err := hk.SeedQueueItem(ctx, input.Body.Type, input.Body.Title)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &seedOutput{}
			out.Body.ID = id
			return out, nil
		})
}
