package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Activations.WithLabelValues("admin", "hash").Inc()
	m.PaneViolations.WithLabelValues("fan").Add(2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `panel_agent_activations_total{role="admin",signal="hash"} 1`) {
		t.Errorf("missing activation counter in exposition:\n%s", body)
	}
	if !strings.Contains(body, `panel_agent_pane_violations_total{role="fan"} 2`) {
		t.Errorf("missing pane violation counter in exposition:\n%s", body)
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	a := New()
	b := New()
	a.ReadyTimeouts.WithLabelValues("manager").Inc()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), `role="manager"`) {
		t.Error("expected separate registries per instance")
	}
}
