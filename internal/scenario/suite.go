package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/baysah/panel_agent/internal/config"
	"github.com/baysah/panel_agent/internal/label"
)

// Tab is one labeled tab a scenario walks through.
type Tab struct {
	Label    string `yaml:"label" json:"label"`
	Required bool   `yaml:"required" json:"required"`

	// Restricted marks a label gated to higher-privileged roles: absence,
	// an unchanged hash, or a locked message are the passing outcomes for
	// this role. Fragment identifies the restricted pane (defaults to the
	// label's slug).
	Restricted bool   `yaml:"restricted" json:"restricted"`
	Fragment   string `yaml:"fragment,omitempty" json:"fragment,omitempty"`

	// PaneWaitMS extends the pane check: poll until the pane set settles
	// to one visible member within this budget (0 = single check).
	PaneWaitMS int `yaml:"pane_wait_ms,omitempty" json:"pane_wait_ms,omitempty"`
}

// Seed describes a deterministic AI-queue seed performed before the walk.
type Seed struct {
	Type  string `yaml:"type" json:"type"`
	Title string `yaml:"title" json:"title"`
}

// Scenario is one runnable unit: a role, an ordered tab walk, and optional
// side-effect checks.
type Scenario struct {
	Name   string `yaml:"name" json:"name"`
	Role   string `yaml:"role" json:"role"`
	Strict bool   `yaml:"strict" json:"strict"`

	Reset bool  `yaml:"reset" json:"reset"`
	Seed  *Seed `yaml:"seed,omitempty" json:"seed,omitempty"`

	Tabs []Tab `yaml:"tabs" json:"tabs"`

	// OpsToggle flips the first checkbox in the active pane and requires a
	// matching save request (POST containing ToggleWatch, status < 400).
	OpsToggle   bool   `yaml:"ops_toggle" json:"ops_toggle"`
	ToggleWatch string `yaml:"toggle_watch,omitempty" json:"toggle_watch,omitempty"`

	// Reload re-navigates after the walk and re-activates Reactivate,
	// checking the pane invariant again.
	Reload     bool   `yaml:"reload" json:"reload"`
	Reactivate string `yaml:"reactivate,omitempty" json:"reactivate,omitempty"`

	// CheckPoll asserts the poll-state endpoint contract (never 5xx, 200
	// bodies parse).
	CheckPoll bool `yaml:"check_poll" json:"check_poll"`
}

// Suite is an ordered list of scenarios.
type Suite struct {
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`
}

// LoadSuite reads and validates a YAML suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses and validates YAML suite bytes.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse suite: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Suite) validate() error {
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("scenario: suite has no scenarios")
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.Name == "" {
			return fmt.Errorf("scenario: scenario %d has no name", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("scenario: duplicate scenario name %q", sc.Name)
		}
		seen[sc.Name] = true
		switch sc.Role {
		case config.RoleAdmin, config.RoleManager, config.RoleFan:
		default:
			return fmt.Errorf("scenario: %s: unknown role %q", sc.Name, sc.Role)
		}
		for j := range sc.Tabs {
			tab := &sc.Tabs[j]
			if tab.Label == "" {
				return fmt.Errorf("scenario: %s: tab %d has no label", sc.Name, j)
			}
			if tab.Restricted && tab.Fragment == "" {
				tab.Fragment = label.Slug(tab.Label)
			}
		}
		if sc.OpsToggle && sc.ToggleWatch == "" {
			sc.ToggleWatch = "update-config"
		}
		if sc.Reload && sc.Reactivate == "" && len(sc.Tabs) > 0 {
			sc.Reactivate = sc.Tabs[len(sc.Tabs)-1].Label
		}
	}
	return nil
}

// ByName finds a scenario in the suite.
func (s *Suite) ByName(name string) (Scenario, bool) {
	for _, sc := range s.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// DefaultSuite is the built-in suite used when no YAML file is configured.
// It covers the canonical walks: the full admin tab sweep, the admin Ops
// save path, the seeded AI Queue, the manager hitting the restricted
// Policies tab, and the fan panel with the poll contract.
func DefaultSuite() *Suite {
	s := &Suite{Scenarios: []Scenario{
		{
			// Ops is always present; the other tabs depend on which app
			// features are enabled, so their absence is not a failure.
			Name: "admin-tab-walk",
			Role: config.RoleAdmin,
			Tabs: []Tab{
				{Label: "Ops", Required: true},
				{Label: "AI"},
				{Label: "AI Queue"},
				{Label: "Rules"},
				{Label: "Menu"},
				{Label: "Audit"},
			},
		},
		{
			Name:        "admin-ops-save",
			Role:        config.RoleAdmin,
			Tabs:        []Tab{{Label: "Ops", Required: true}},
			OpsToggle:   true,
			ToggleWatch: "update-config",
			Reload:      true,
			Reactivate:  "Ops",
		},
		{
			Name:  "admin-ai-queue-seeded",
			Role:  config.RoleAdmin,
			Reset: true,
			Seed:  &Seed{Type: "reply_draft", Title: "CI Seed"},
			Tabs:  []Tab{{Label: "AI Queue", Required: true, PaneWaitMS: 8000}},
		},
		{
			Name: "manager-restricted-policies",
			Role: config.RoleManager,
			Tabs: []Tab{{Label: "Policies", Restricted: true, Fragment: "polic"}},
		},
		{
			Name:      "fan-poll-contract",
			Role:      config.RoleFan,
			Tabs:      []Tab{{Label: "Matches", Required: false}},
			CheckPoll: true,
		},
	}}
	// Validation also fills derived defaults.
	if err := s.validate(); err != nil {
		panic(err)
	}
	return s
}
