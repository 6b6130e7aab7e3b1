// Package metrics exposes probe counters for the controller's /metrics
// endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the probe's prometheus collectors on a private registry so
// tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	Activations    *prometheus.CounterVec
	ReadyTimeouts  *prometheus.CounterVec
	PaneViolations *prometheus.CounterVec
	CapturedErrors *prometheus.CounterVec
	ScenarioRuns   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Activations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_agent_activations_total",
			Help: "Tab activations by role and confirming signal (hash, aria, pane, none).",
		}, []string{"role", "signal"}),
		ReadyTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_agent_ready_timeouts_total",
			Help: "Readiness waits that expired before the panel settled.",
		}, []string{"role"}),
		PaneViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_agent_pane_violations_total",
			Help: "Observations of a pane set with visible count != 1.",
		}, []string{"role"}),
		CapturedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_agent_captured_errors_total",
			Help: "Page faults captured by the passive watcher, by tag.",
		}, []string{"role", "tag"}),
		ScenarioRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_agent_scenario_runs_total",
			Help: "Scenario outcomes by role and result (pass, fail, skip).",
		}, []string{"role", "result"}),
	}
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
