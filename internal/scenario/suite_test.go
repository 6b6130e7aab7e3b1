package scenario

import (
	"strings"
	"testing"
)

func TestParseSuiteFillsDerivedDefaults(t *testing.T) {
	data := []byte(`
scenarios:
  - name: admin-ops-save
    role: admin
    tabs:
      - label: Ops
        required: true
    ops_toggle: true
    reload: true
  - name: manager-policies
    role: manager
    tabs:
      - label: Policies
        restricted: true
`)
	s, err := ParseSuite(data)
	if err != nil {
		t.Fatalf("ParseSuite() = %v", err)
	}

	ops, ok := s.ByName("admin-ops-save")
	if !ok {
		t.Fatal("missing admin-ops-save")
	}
	if ops.ToggleWatch != "update-config" {
		t.Errorf("ToggleWatch = %q; want update-config default", ops.ToggleWatch)
	}
	if ops.Reactivate != "Ops" {
		t.Errorf("Reactivate = %q; want last tab label", ops.Reactivate)
	}

	mgr, _ := s.ByName("manager-policies")
	if mgr.Tabs[0].Fragment != "policies" {
		t.Errorf("Fragment = %q; want slug of label", mgr.Tabs[0].Fragment)
	}
}

func TestParseSuiteRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", `scenarios: []`, "no scenarios"},
		{"unknown role", "scenarios:\n  - name: x\n    role: spectator\n", "unknown role"},
		{"missing name", "scenarios:\n  - role: admin\n", "no name"},
		{"duplicate name", "scenarios:\n  - name: x\n    role: admin\n  - name: x\n    role: fan\n", "duplicate"},
		{"unlabeled tab", "scenarios:\n  - name: x\n    role: admin\n    tabs:\n      - required: true\n", "no label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v; want to contain %q", err, tt.want)
			}
		})
	}
}

func TestDefaultSuiteCoversCanonicalWalks(t *testing.T) {
	s := DefaultSuite()

	for _, name := range []string{
		"admin-tab-walk",
		"admin-ops-save",
		"admin-ai-queue-seeded",
		"manager-restricted-policies",
		"fan-poll-contract",
	} {
		if _, ok := s.ByName(name); !ok {
			t.Errorf("default suite missing %s", name)
		}
	}

	walk, _ := s.ByName("admin-tab-walk")
	var labels []string
	for _, tab := range walk.Tabs {
		labels = append(labels, tab.Label)
	}
	want := []string{"Ops", "AI", "AI Queue", "Rules", "Menu", "Audit"}
	if len(labels) != len(want) {
		t.Fatalf("tab walk = %v; want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("tab walk = %v; want %v", labels, want)
		}
	}
	if !walk.Tabs[0].Required {
		t.Error("Ops must be required in the tab walk")
	}
	for _, tab := range walk.Tabs[1:] {
		if tab.Required {
			t.Errorf("tab %s should be optional", tab.Label)
		}
	}

	seeded, _ := s.ByName("admin-ai-queue-seeded")
	if seeded.Seed == nil || seeded.Seed.Type != "reply_draft" || seeded.Seed.Title != "CI Seed" {
		t.Errorf("seed = %+v; want reply_draft / CI Seed", seeded.Seed)
	}
	if !seeded.Reset {
		t.Error("seeded scenario must reset first")
	}

	restricted, _ := s.ByName("manager-restricted-policies")
	if restricted.Tabs[0].Fragment != "polic" {
		t.Errorf("restricted fragment = %q; want polic", restricted.Tabs[0].Fragment)
	}
}

func TestNewSessionShape(t *testing.T) {
	s := NewSession("fan")
	if s.ID == "" {
		t.Error("empty session id")
	}
	if s.Role != "fan" {
		t.Errorf("role = %q; want fan", s.Role)
	}
	if s.Bucket != "A" && s.Bucket != "B" {
		t.Errorf("bucket = %q; want A or B", s.Bucket)
	}
	if s.StartedAt.IsZero() {
		t.Error("zero start time")
	}
}
