// Package cli implements the panel_probe command line interface.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	jsonOutput bool
	strictMode bool
	suitePath  string

	// Build information, set via ldflags.
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "panel_probe",
	Short: "Deterministic UI probe for the World Cup Concierge panels",
	Long: `panel_probe drives the admin, manager and fan panels of a running
World Cup Concierge instance over the Chrome DevTools Protocol: it waits for
UI readiness, resolves and activates tabs, checks the single-visible-pane
invariant and collects page errors.

Examples:
  panel_probe run                        # Run every scenario in the suite
  panel_probe run admin-ops-save         # Run one scenario by name
  panel_probe run --strict               # Missing env fails instead of skipping
  panel_probe audit panel.html Overview  # Resolve labels against static HTML
  panel_probe endpoints                  # Smoke-check the app's public endpoints`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "Treat missing environment as FAIL instead of SKIP")
	rootCmd.PersistentFlags().StringVar(&suitePath, "suite", "", "Scenario suite YAML (defaults to PROBE_SUITE_PATH, then built-ins)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newEndpointsCmd())
}

func setupLogger() {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		slog.Debug("log directory creation failed", "error", err)
	}
	logWriter := &lumberjack.Logger{
		Filename:   "logs/panel_probe.log",
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}
	out := io.MultiWriter(os.Stderr, logWriter)
	if jsonOutput {
		// Keep stdout clean for the JSON report.
		out = logWriter
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))
}
