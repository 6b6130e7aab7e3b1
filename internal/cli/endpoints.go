package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baysah/panel_agent/internal/config"
	"github.com/baysah/panel_agent/internal/hooks"
)

var (
	endpointsReset bool
	endpointsVote  string
)

func newEndpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Smoke-check the app's public endpoints and test hooks",
		Long: `Endpoints exercises the app under test without a browser: the poll-state
contract (never 5xx, 200 bodies parse), the schedule feed, a poll vote when a
choice is given, and optionally the deterministic reset hook.`,
		RunE: runEndpoints,
	}
	cmd.Flags().BoolVar(&endpointsReset, "reset", false, "Also call the test reset hook")
	cmd.Flags().StringVar(&endpointsVote, "vote", "", "Also cast a poll vote for the given choice")
	return cmd
}

type endpointCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func runEndpoints(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("PROBE_BASE_URL is not set")
	}

	client := hooks.NewClient(cfg.BaseURL, cfg.TestToken, nil)
	ctx := cmd.Context()
	var checks []endpointCheck

	_, status, err := client.PollState(ctx)
	checks = append(checks, check("poll-state", status, err))

	_, err = client.Schedule(ctx)
	checks = append(checks, check("schedule", 0, err))

	if endpointsVote != "" {
		_, status, err = client.Vote(ctx, map[string]any{"choice": endpointsVote})
		checks = append(checks, check("vote", status, err))
	}

	if endpointsReset {
		err = client.Reset(ctx)
		checks = append(checks, check("reset", 0, err))
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(checks); err != nil {
			return err
		}
	} else {
		for _, c := range checks {
			verdict := "OK  "
			if !c.OK {
				verdict = "FAIL"
			}
			fmt.Printf("%s %-12s", verdict, c.Name)
			if c.Status > 0 {
				fmt.Printf(" status=%d", c.Status)
			}
			if c.Detail != "" {
				fmt.Printf(" %s", c.Detail)
			}
			fmt.Println()
		}
	}

	for _, c := range checks {
		if !c.OK {
			return fmt.Errorf("endpoint check failed: %s", c.Name)
		}
	}
	return nil
}

func check(name string, status int, err error) endpointCheck {
	c := endpointCheck{Name: name, OK: err == nil, Status: status}
	if err != nil {
		c.Detail = err.Error()
	}
	return c
}
