//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// After any successful activation exactly one pane may be visible. The
// assert form turns a violation into a 409.
func TestSinglePaneAfterActivation(t *testing.T) {
	requireRole(t, "admin")
	settle(t, "admin")

	resp := env.POST(t, "/api/v1/panel/admin/tab/Ops/activate", nil)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET(t, "/api/v1/panel/admin/panes?assert=true")
	requireStatus(t, resp, http.StatusOK)
	report := decodeJSON[paneReport](t, resp)

	if report.Panes.Skipped {
		t.Skip("panel carries no pane markup")
	}
	if !report.OK || report.Panes.Visible != 1 {
		t.Fatalf("pane state = %+v", report.Panes)
	}
}

// Pane checks without activation never error: a zero-pane panel is
// reported as skipped, not as a violation.
func TestPaneStateOnFanPanel(t *testing.T) {
	requireRole(t, "fan")
	settle(t, "fan")

	resp := env.GET(t, "/api/v1/panel/fan/panes")
	requireStatus(t, resp, http.StatusOK)
	report := decodeJSON[paneReport](t, resp)

	if report.Panes.Total == 0 && !report.Panes.Skipped {
		t.Fatalf("zero panes must report skipped: %+v", report.Panes)
	}
}
