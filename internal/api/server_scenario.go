package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/baysah/panel_agent/internal/scenario"
)

func registerScenarioHandlers(api huma.API, runner ScenarioRunner, suite *scenario.Suite) {
	type scenarioSummary struct {
		Name string `json:"name"`
		Role string `json:"role"`
		Tabs int    `json:"tabs"`
	}
	type listOutput struct {
		Body struct {
			Scenarios []scenarioSummary `json:"scenarios"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-scenarios", Method: http.MethodGet, Path: "/api/v1/scenarios", Summary: "List the loaded scenario definitions", Tags: []string{"Scenarios"}},
		func(ctx context.Context, input *struct{}) (*listOutput, error) {
			out := &listOutput{}
			if suite != nil {
				for _, sc := range suite.Scenarios {
					out.Body.Scenarios = append(out.Body.Scenarios, scenarioSummary{
						Name: sc.Name, Role: sc.Role, Tabs: len(sc.Tabs),
					})
				}
			}
			return out, nil
		})

	type runInput struct {
		Name string `path:"name" doc:"Scenario name from the loaded suite"`
	}
	type runOutput struct {
		Body scenario.RunResult
	}
	huma.Register(api, huma.Operation{OperationID: "run-scenario", Method: http.MethodPost, Path: "/api/v1/scenario/{name}/run", Summary: "Run one named scenario and return its step transcript", Tags: []string{"Scenarios"}},
		func(ctx context.Context, input *runInput) (*runOutput, error) {
			if runner == nil || suite == nil {
				return nil, huma.Error502BadGateway("scenario runner not configured")
			}
			sc, ok := suite.ByName(input.Name)
			if !ok {
				return nil, huma.Error404NotFound("unknown scenario: " + input.Name)
			}
			out := &runOutput{}
			out.Body = runner.Run(ctx, sc)
			return out, nil
		})
}
