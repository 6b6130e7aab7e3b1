package watch

import (
	"sync"
	"time"
)

// Error entry tags.
const (
	TagPageError = "pageerror"
	TagConsole   = "console.error"
)

// ErrorEntry is one captured page fault: an uncaught exception or a
// console.error call.
type ErrorEntry struct {
	Seq  int       `json:"seq"`
	Role string    `json:"role"`
	Tag  string    `json:"tag"`
	Text string    `json:"text"`
	URL  string    `json:"url,omitempty"`
	Time time.Time `json:"time"`
}

// ErrorCollector accumulates page faults per role panel. Append-only
// between resets: repeated identical messages are all kept, in arrival
// order, so a fault that fires on every poll is visible as such.
type ErrorCollector struct {
	mu       sync.Mutex
	seq      int
	entries  map[string][]ErrorEntry
	observer func(ErrorEntry)
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{entries: make(map[string][]ErrorEntry)}
}

// SetObserver registers a callback invoked after each append, e.g. to feed
// a counter. Set it before the watcher connects.
func (c *ErrorCollector) SetObserver(fn func(ErrorEntry)) {
	c.mu.Lock()
	c.observer = fn
	c.mu.Unlock()
}

func (c *ErrorCollector) Append(role, tag, text, url string) {
	entry := ErrorEntry{
		Role: role,
		Tag:  tag,
		Text: text,
		URL:  url,
		Time: time.Now().UTC(),
	}

	c.mu.Lock()
	c.seq++
	entry.Seq = c.seq
	c.entries[role] = append(c.entries[role], entry)
	observer := c.observer
	c.mu.Unlock()

	if observer != nil {
		observer(entry)
	}
}

// Snapshot returns a copy of the role's entries in arrival order.
func (c *ErrorCollector) Snapshot(role string) []ErrorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := c.entries[role]
	out := make([]ErrorEntry, len(src))
	copy(out, src)
	return out
}

// Reset clears the role's entries. The sequence counter keeps running so
// entries from before and after a reset never share a Seq.
func (c *ErrorCollector) Reset(role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, role)
}

// ResetAll clears every role's entries.
func (c *ErrorCollector) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]ErrorEntry)
}

// Count reports how many entries a role currently holds.
func (c *ErrorCollector) Count(role string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[role])
}
