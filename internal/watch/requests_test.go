package watch

import (
	"context"
	"testing"
	"time"
)

func TestRequestLogEvictsOldest(t *testing.T) {
	l := NewRequestLog(2)

	l.Record(RequestEvent{Role: "fan", RequestID: "1", Method: "GET", URL: "http://app/a", Status: 200})
	l.Record(RequestEvent{Role: "fan", RequestID: "2", Method: "GET", URL: "http://app/b", Status: 200})
	l.Record(RequestEvent{Role: "fan", RequestID: "3", Method: "GET", URL: "http://app/c", Status: 200})

	got := l.Recent("fan")
	if len(got) != 2 {
		t.Fatalf("got %d events; want 2", len(got))
	}
	if got[0].RequestID != "2" || got[1].RequestID != "3" {
		t.Fatalf("window = [%s %s]; want [2 3]", got[0].RequestID, got[1].RequestID)
	}
}

func TestRequestLogRecentFiltersByRole(t *testing.T) {
	l := NewRequestLog(10)

	l.Record(RequestEvent{Role: "fan", RequestID: "1", Method: "POST", URL: "http://app/api/vote", Status: 201})
	l.Record(RequestEvent{Role: "admin", RequestID: "2", Method: "GET", URL: "http://app/api/matches", Status: 200})

	if got := l.Recent("admin"); len(got) != 1 || got[0].RequestID != "2" {
		t.Fatalf("admin events = %+v; want single request 2", got)
	}
	if got := l.Recent(""); len(got) != 2 {
		t.Fatalf("all events = %d; want 2", len(got))
	}
}

func TestWaitMatchesBufferedEvent(t *testing.T) {
	l := NewRequestLog(10)
	l.Record(RequestEvent{Role: "fan", RequestID: "1", Method: "POST", URL: "http://app/api/vote", Status: 201})

	ev, ok := l.Wait(context.Background(), "fan", MethodAndPath("POST", "/api/vote"), 50*time.Millisecond)
	if !ok {
		t.Fatal("expected buffered event to match")
	}
	if ev.Status != 201 {
		t.Fatalf("status = %d; want 201", ev.Status)
	}
}

func TestWaitMatchesLiveEvent(t *testing.T) {
	l := NewRequestLog(10)

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Record(RequestEvent{Role: "fan", RequestID: "1", Method: "POST", URL: "http://app/api/vote", Status: 200})
	}()

	ev, ok := l.Wait(context.Background(), "fan", MethodAndPath("POST", "/api/vote"), 2*time.Second)
	if !ok {
		t.Fatal("expected live event to match")
	}
	if ev.RequestID != "1" {
		t.Fatalf("request id = %s; want 1", ev.RequestID)
	}
}

func TestWaitTimesOut(t *testing.T) {
	l := NewRequestLog(10)
	l.Record(RequestEvent{Role: "fan", RequestID: "1", Method: "GET", URL: "http://app/api/matches", Status: 200})

	_, ok := l.Wait(context.Background(), "fan", MethodAndPath("POST", "/api/vote"), 30*time.Millisecond)
	if ok {
		t.Fatal("expected wait to time out")
	}
}

func TestWaitIgnoresOtherRoles(t *testing.T) {
	l := NewRequestLog(10)

	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Record(RequestEvent{Role: "admin", RequestID: "1", Method: "POST", URL: "http://app/api/vote", Status: 200})
	}()

	_, ok := l.Wait(context.Background(), "fan", MethodAndPath("POST", "/api/vote"), 60*time.Millisecond)
	if ok {
		t.Fatal("expected admin event not to satisfy a fan wait")
	}
}

func TestMethodAndPathRequiresCompletedResponse(t *testing.T) {
	pred := MethodAndPath("post", "/api/vote")

	if pred(RequestEvent{Method: "POST", URL: "http://app/api/vote"}) {
		t.Error("expected pending request (status 0) not to match")
	}
	if !pred(RequestEvent{Method: "POST", URL: "http://app/api/vote", Status: 500}) {
		t.Error("expected completed request to match regardless of status class")
	}
	if pred(RequestEvent{Method: "GET", URL: "http://app/api/vote", Status: 200}) {
		t.Error("expected method mismatch not to match")
	}
}
