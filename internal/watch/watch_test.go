package watch

import "testing"

func TestRoleForURLLongestPrefixWins(t *testing.T) {
	w := NewWatcher("http://127.0.0.1:9222", "", map[string]string{
		"admin":   "/admin",
		"manager": "/manager",
		"fan":     "/",
	}, 0)

	tests := []struct {
		url  string
		want string
	}{
		{"http://app.test/admin#live-ops", "admin"},
		{"http://app.test/manager", "manager"},
		{"http://app.test/", "fan"},
		{"http://app.test/bracket", "fan"},
		{"://bad", ""},
	}
	for _, tt := range tests {
		if got := w.roleForURL(tt.url); got != tt.want {
			t.Errorf("roleForURL(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestMatchesTabURL(t *testing.T) {
	w := NewWatcher("http://127.0.0.1:9222", "App.Test", nil, 0)

	if !w.matchesTabURL("http://app.test/admin") {
		t.Error("expected case-insensitive filter match")
	}
	if w.matchesTabURL("http://other.test/") {
		t.Error("expected non-matching URL to be skipped")
	}

	open := NewWatcher("http://127.0.0.1:9222", "", nil, 0)
	if !open.matchesTabURL("http://anything/") {
		t.Error("expected empty filter to match everything")
	}
}

func TestFormatRemoteObject(t *testing.T) {
	if got := formatRemoteObject(nil); got != "" {
		t.Errorf("nil object = %q; want empty", got)
	}
}
