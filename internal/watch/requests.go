package watch

import (
	"context"
	"strings"
	"sync"
	"time"
)

// RequestEvent is one observed network request on a role panel. Status is
// zero until the response arrives; Failed covers transport-level errors
// (DNS, refused connection, aborted load).
type RequestEvent struct {
	Role      string    `json:"role"`
	RequestID string    `json:"request_id"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Status    int       `json:"status,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	ErrorText string    `json:"error_text,omitempty"`
	Time      time.Time `json:"time"`
}

// Predicate selects request events of interest, e.g. a POST to the vote
// endpoint with a 2xx response.
type Predicate func(RequestEvent) bool

// MethodAndPath matches completed requests by HTTP method and URL path
// fragment.
func MethodAndPath(method, pathFragment string) Predicate {
	method = strings.ToUpper(method)
	return func(ev RequestEvent) bool {
		return strings.EqualFold(ev.Method, method) &&
			strings.Contains(ev.URL, pathFragment) &&
			ev.Status > 0
	}
}

// RequestLog keeps a bounded window of recent request events and wakes
// waiters as new events arrive.
type RequestLog struct {
	mu      sync.Mutex
	cap     int
	events  []RequestEvent
	waiters map[int]chan RequestEvent
	nextID  int
}

func NewRequestLog(capacity int) *RequestLog {
	if capacity <= 0 {
		capacity = 512
	}
	return &RequestLog{
		cap:     capacity,
		waiters: make(map[int]chan RequestEvent),
	}
}

// Record appends an event, evicting the oldest when the window is full,
// and offers it to any active waiters.
func (l *RequestLog) Record(ev RequestEvent) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	l.mu.Lock()
	l.events = append(l.events, ev)
	if len(l.events) > l.cap {
		l.events = l.events[len(l.events)-l.cap:]
	}
	for _, ch := range l.waiters {
		select {
		case ch <- ev:
		default:
		}
	}
	l.mu.Unlock()
}

// Recent returns a copy of the role's buffered events, oldest first. An
// empty role matches all panels.
func (l *RequestLog) Recent(role string) []RequestEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RequestEvent, 0, len(l.events))
	for _, ev := range l.events {
		if role == "" || ev.Role == role {
			out = append(out, ev)
		}
	}
	return out
}

// Wait blocks until an event for the role satisfies the predicate or the
// timeout expires. Events already in the window are checked first, so a
// request that completed just before Wait was called still matches.
func (l *RequestLog) Wait(ctx context.Context, role string, pred Predicate, timeout time.Duration) (RequestEvent, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ch := make(chan RequestEvent, 16)
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.waiters[id] = ch
	buffered := make([]RequestEvent, len(l.events))
	copy(buffered, l.events)
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.waiters, id)
		l.mu.Unlock()
	}()

	for _, ev := range buffered {
		if (role == "" || ev.Role == role) && pred(ev) {
			return ev, true
		}
	}

	for {
		select {
		case ev := <-ch:
			if (role == "" || ev.Role == role) && pred(ev) {
				return ev, true
			}
		case <-deadline.C:
			return RequestEvent{}, false
		case <-ctx.Done():
			return RequestEvent{}, false
		}
	}
}
