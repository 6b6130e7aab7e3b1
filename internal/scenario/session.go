package scenario

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-run context threaded explicitly through every step.
// Nothing here lives in ambient state; a new scenario run gets a new value.
type Session struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Bucket    string    `json:"bucket"`
	StartedAt time.Time `json:"started_at"`
}

// NewSession creates a session for a role. The A/B bucket is derived from
// the run id so repeated runs spread across both buckets without any
// server-side coordination.
func NewSession(role string) Session {
	id := uuid.New()
	bucket := "A"
	if id[0]%2 == 1 {
		bucket = "B"
	}
	return Session{
		ID:        id.String(),
		Role:      role,
		Bucket:    bucket,
		StartedAt: time.Now().UTC(),
	}
}
