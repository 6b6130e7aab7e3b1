package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baysah/panel_agent/internal/config"
	"github.com/baysah/panel_agent/internal/metrics"
	"github.com/baysah/panel_agent/internal/probe"
	"github.com/baysah/panel_agent/internal/scenario"
	"github.com/baysah/panel_agent/internal/storage"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scenarios against the live panels",
		Long: `Run connects to the browser over CDP, attaches to the panel tabs and
executes the named scenarios (or the whole suite when none are named).
The exit status is non-zero when any scenario fails.`,
		RunE: runScenarios,
	}
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	suite, err := loadSuite(cfg)
	if err != nil {
		return err
	}

	selected := suite.Scenarios
	if len(args) > 0 {
		selected = selected[:0:0]
		for _, name := range args {
			sc, ok := suite.ByName(name)
			if !ok {
				return fmt.Errorf("unknown scenario: %s", name)
			}
			selected = append(selected, sc)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	svc := probe.NewService(cfg, m)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Debug("probe close failed", "error", err)
		}
	}()

	registry := storage.NewWriterRegistry(cfg.DataDir, 100, cfg.MaxFileSizeMB)
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Warn("transcript writer close failed", "error", err)
		}
	}()

	runner := &scenario.Runner{
		Prober:         svc,
		Hooks:          svc.Hooks(),
		Registry:       registry,
		Metrics:        m,
		RoleConfigured: roleConfigured(cfg),
		Strict:         strictMode || cfg.Strict,
	}

	results := make([]scenario.RunResult, 0, len(selected))
	for _, sc := range selected {
		results = append(results, runner.Run(ctx, sc))
		if ctx.Err() != nil {
			break
		}
	}

	if err := report(results); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Outcome == scenario.OutcomeFail {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func loadSuite(cfg *config.Config) (*scenario.Suite, error) {
	path := suitePath
	if path == "" {
		path = cfg.SuitePath
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return scenario.LoadSuite(path)
		}
	}
	slog.Info("no suite file found, using built-in scenarios", "path", path)
	return scenario.DefaultSuite(), nil
}

// roleConfigured reports whether the environment names a target for the
// role. Fan panels are public, so only the URL is required there.
func roleConfigured(cfg *config.Config) func(string) bool {
	return func(role string) bool {
		if cfg.RoleURL(role) == "" {
			return false
		}
		if role == config.RoleFan {
			return true
		}
		return cfg.RoleKey(role) != ""
	}
}

func report(results []scenario.RunResult) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, res := range results {
		fmt.Printf("%-4s %s (%s) steps=%d", res.Outcome, res.Scenario, res.Role, len(res.Steps))
		if res.Reason != "" {
			fmt.Printf(" reason=%s", res.Reason)
		}
		fmt.Println()
		if res.Outcome == scenario.OutcomeFail {
			for _, step := range res.Steps {
				if step.Outcome == scenario.OutcomePass {
					continue
				}
				fmt.Printf("     %s %s %s %s\n", step.Outcome, step.Step, step.Label, step.Detail)
			}
			for _, e := range res.Errors {
				fmt.Printf("     error #%d [%s] %s\n", e.Seq, e.Tag, e.Text)
			}
		}
	}
	return nil
}
