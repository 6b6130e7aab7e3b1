//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The error log is append-only with strictly increasing sequence numbers,
// and a reset empties it without disturbing other panels.
func TestErrorLogOrderAndReset(t *testing.T) {
	requireRole(t, "admin")

	resp := env.DELETE(t, "/api/v1/panel/admin/errors")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	settle(t, "admin")
	resp = env.POST(t, "/api/v1/panel/admin/tab/Ops/activate", nil)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET(t, "/api/v1/panel/admin/errors")
	requireStatus(t, resp, http.StatusOK)
	log := decodeJSON[errorLog](t, resp)

	if log.Count != len(log.Errors) {
		t.Fatalf("count = %d, entries = %d", log.Count, len(log.Errors))
	}
	for i := 1; i < len(log.Errors); i++ {
		if log.Errors[i].Seq <= log.Errors[i-1].Seq {
			t.Fatalf("sequence not increasing at %d: %+v", i, log.Errors)
		}
	}
	for _, e := range log.Errors {
		if e.Tag != "pageerror" && e.Tag != "console.error" {
			t.Fatalf("unknown tag %q", e.Tag)
		}
	}

	resp = env.DELETE(t, "/api/v1/panel/admin/errors")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET(t, "/api/v1/panel/admin/errors")
	requireStatus(t, resp, http.StatusOK)
	log = decodeJSON[errorLog](t, resp)
	if log.Count != 0 {
		t.Fatalf("log not empty after reset: %+v", log)
	}
}

// A healthy walk across every attached panel must capture zero errors.
func TestNoCapturedErrorsOnCleanWalk(t *testing.T) {
	for _, role := range env.Roles {
		role := role
		t.Run(role, func(t *testing.T) {
			resp := env.DELETE(t, "/api/v1/panel/"+role+"/errors")
			requireStatus(t, resp, http.StatusOK)
			resp.Body.Close()

			settle(t, role)

			resp = env.GET(t, "/api/v1/panel/"+role+"/errors")
			requireStatus(t, resp, http.StatusOK)
			log := decodeJSON[errorLog](t, resp)
			if log.Count != 0 {
				t.Fatalf("captured %d errors on a clean load: %+v", log.Count, log.Errors)
			}
		})
	}
}
