package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baysah/panel_agent/internal/config"
	"github.com/baysah/panel_agent/internal/domaudit"
	"github.com/baysah/panel_agent/internal/scenario"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <html-file> [label...]",
		Short: "Resolve tab labels against a static HTML snapshot",
		Long: `Audit parses a saved panel HTML file and runs the tab resolver over it
without a browser: exact accessible-name match first, then case-folded text
fragment, then the data-tab slug. With no labels it audits every tab label
named in the scenario suite.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAudit,
	}
}

func runAudit(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	resolver, err := domaudit.NewResolver(f)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	labels := args[1:]
	if len(labels) == 0 {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		suite, err := loadSuite(cfg)
		if err != nil {
			return err
		}
		labels = suiteLabels(suite)
	}
	if len(labels) == 0 {
		return fmt.Errorf("no labels to audit")
	}

	report := resolver.Audit(labels)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, m := range report.Matches {
			fmt.Printf("FOUND   %-20s strategy=%s index=%d tag=%s\n", m.Label, m.Strategy, m.Index, m.Tag)
		}
		for _, lbl := range report.Missing {
			fmt.Printf("MISSING %s\n", lbl)
		}
	}

	if len(report.Missing) > 0 {
		return fmt.Errorf("%d of %d labels unresolved", len(report.Missing), len(labels))
	}
	return nil
}

func suiteLabels(suite *scenario.Suite) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, sc := range suite.Scenarios {
		for _, tab := range sc.Tabs {
			if !seen[tab.Label] {
				seen[tab.Label] = true
				labels = append(labels, tab.Label)
			}
		}
	}
	return labels
}
