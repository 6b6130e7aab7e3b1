// Package watch passively observes the role panels over chromedp: it
// collects uncaught page exceptions and console.error output, and keeps a
// window of network request outcomes. Active probing (eval, clicks,
// navigation) runs on a separate raw CDP connection; this package never
// drives the page, so auto-attach session churn cannot disturb a probe
// mid-flight.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Watcher attaches to every panel tab and feeds the error collector and
// request log from CDP events.
type Watcher struct {
	cdpURL    string
	tabFilter string
	rolePaths map[string]string

	Errors   *ErrorCollector
	Requests *RequestLog

	allocCtx    context.Context
	allocCancel context.CancelFunc

	tabs   map[target.ID]*tabContext
	tabsMu sync.RWMutex

	pending   map[string]RequestEvent
	pendingMu sync.Mutex
}

type tabContext struct {
	id     target.ID
	role   string
	url    string
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWatcher(cdpURL, tabFilter string, rolePaths map[string]string, requestWindow int) *Watcher {
	paths := make(map[string]string, len(rolePaths))
	for role, p := range rolePaths {
		paths[role] = p
	}
	return &Watcher{
		cdpURL:    cdpURL,
		tabFilter: strings.ToLower(strings.TrimSpace(tabFilter)),
		rolePaths: paths,
		Errors:    NewErrorCollector(),
		Requests:  NewRequestLog(requestWindow),
		tabs:      make(map[target.ID]*tabContext),
		pending:   make(map[string]RequestEvent),
	}
}

func (w *Watcher) Connect(ctx context.Context) error {
	_ = ctx
	slog.Info("Connecting watcher to Chromium", "url", w.cdpURL)

	w.allocCtx, w.allocCancel = chromedp.NewRemoteAllocator(context.Background(), w.cdpURL)

	tempCtx, tempCancel := chromedp.NewContext(w.allocCtx)
	defer tempCancel()

	if err := chromedp.Run(tempCtx); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	targets, err := chromedp.Targets(tempCtx)
	if err != nil {
		return fmt.Errorf("failed to enumerate targets: %w", err)
	}

	attached := 0
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if !w.matchesTabURL(t.URL) {
			slog.Debug("Skipping tab (url filter)", "url", t.URL)
			continue
		}
		role := w.roleForURL(t.URL)
		if role == "" {
			slog.Debug("Skipping tab (no role)", "url", t.URL)
			continue
		}
		if err := w.attachToTab(t.TargetID, role, t.URL); err != nil {
			slog.Error("Failed to attach watcher to tab", "target_id", t.TargetID, "role", role, "error", err)
			continue
		}
		attached++
	}

	if attached == 0 {
		return fmt.Errorf("no panel tabs found matching filter %q", w.tabFilter)
	}

	slog.Info("Watcher attached", "tabs", attached)
	return nil
}

func (w *Watcher) attachToTab(targetID target.ID, role, tabURL string) error {
	tabCtx, tabCancel := chromedp.NewContext(w.allocCtx, chromedp.WithTargetID(targetID))
	tab := &tabContext{id: targetID, role: role, url: tabURL, ctx: tabCtx, cancel: tabCancel}

	w.tabsMu.Lock()
	w.tabs[targetID] = tab
	w.tabsMu.Unlock()

	if err := chromedp.Run(tabCtx, network.Enable(), runtime.Enable(), page.Enable()); err != nil {
		tabCancel()
		w.tabsMu.Lock()
		delete(w.tabs, targetID)
		w.tabsMu.Unlock()
		return fmt.Errorf("failed to enable CDP domains: %w", err)
	}

	slog.Info("Watcher attached to tab", "target_id", targetID, "role", role, "url", truncateURL(tabURL))
	chromedp.ListenTarget(tabCtx, w.createEventHandler(tab))
	return nil
}

func (w *Watcher) createEventHandler(tab *tabContext) func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				w.onNavigated(tab, e.Frame.URL)
			}
		case *page.EventNavigatedWithinDocument:
			w.onNavigated(tab, e.URL)
		case *runtime.EventExceptionThrown:
			w.onException(tab, e)
		case *runtime.EventConsoleAPICalled:
			w.onConsole(tab, e)
		case *network.EventRequestWillBeSent:
			w.onRequestWillBeSent(tab, e)
		case *network.EventResponseReceived:
			w.onResponseReceived(e)
		case *network.EventLoadingFailed:
			w.onLoadingFailed(tab, e)
		}
	}
}

func (w *Watcher) onNavigated(tab *tabContext, newURL string) {
	role := w.roleForURL(newURL)
	w.tabsMu.Lock()
	tab.url = newURL
	if role != "" {
		tab.role = role
	}
	w.tabsMu.Unlock()
	slog.Info("Panel navigated", "role", tab.role, "url", truncateURL(newURL))
}

func (w *Watcher) onException(tab *tabContext, ev *runtime.EventExceptionThrown) {
	if ev.ExceptionDetails == nil {
		return
	}
	d := ev.ExceptionDetails
	text := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		text = d.Exception.Description
	}
	w.Errors.Append(tab.role, TagPageError, text, d.URL)
	slog.Warn("Page exception", "role", tab.role, "text", truncateURL(text))
}

func (w *Watcher) onConsole(tab *tabContext, ev *runtime.EventConsoleAPICalled) {
	if ev.Type != runtime.APITypeError {
		return
	}
	parts := make([]string, 0, len(ev.Args))
	for _, arg := range ev.Args {
		parts = append(parts, formatRemoteObject(arg))
	}
	w.Errors.Append(tab.role, TagConsole, strings.Join(parts, " "), tab.url)
}

func (w *Watcher) onRequestWillBeSent(tab *tabContext, ev *network.EventRequestWillBeSent) {
	w.pendingMu.Lock()
	w.pending[string(ev.RequestID)] = RequestEvent{
		Role:      tab.role,
		RequestID: string(ev.RequestID),
		Method:    ev.Request.Method,
		URL:       ev.Request.URL,
		Time:      time.Now().UTC(),
	}
	w.pendingMu.Unlock()
}

func (w *Watcher) onResponseReceived(ev *network.EventResponseReceived) {
	w.pendingMu.Lock()
	req, ok := w.pending[string(ev.RequestID)]
	if ok {
		delete(w.pending, string(ev.RequestID))
	}
	w.pendingMu.Unlock()
	if !ok {
		return
	}
	req.Status = int(ev.Response.Status)
	w.Requests.Record(req)
}

func (w *Watcher) onLoadingFailed(tab *tabContext, ev *network.EventLoadingFailed) {
	w.pendingMu.Lock()
	req, ok := w.pending[string(ev.RequestID)]
	if ok {
		delete(w.pending, string(ev.RequestID))
	}
	w.pendingMu.Unlock()
	if !ok {
		req = RequestEvent{
			Role:      tab.role,
			RequestID: string(ev.RequestID),
			Time:      time.Now().UTC(),
		}
	}
	req.Failed = true
	req.ErrorText = ev.ErrorText
	w.Requests.Record(req)
}

func (w *Watcher) Close() error {
	w.tabsMu.Lock()
	w.tabs = make(map[target.ID]*tabContext)
	w.tabsMu.Unlock()

	if w.allocCancel != nil {
		w.allocCancel()
	}
	slog.Info("Watcher closed")
	return nil
}

func (w *Watcher) TabCount() int {
	w.tabsMu.RLock()
	defer w.tabsMu.RUnlock()
	return len(w.tabs)
}

func (w *Watcher) matchesTabURL(u string) bool {
	if w.tabFilter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u), w.tabFilter)
}

// roleForURL maps a tab URL to a role by path prefix, longest prefix
// winning.
func (w *Watcher) roleForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	bestRole, bestLen := "", -1
	for role, prefix := range w.rolePaths {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(path, prefix) && len(prefix) > bestLen {
			bestRole, bestLen = role, len(prefix)
		}
	}
	return bestRole
}

func formatRemoteObject(obj *runtime.RemoteObject) string {
	if obj == nil {
		return ""
	}
	if len(obj.Value) > 0 {
		s := string(obj.Value)
		// String values arrive JSON-quoted.
		if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
			return s[1 : len(s)-1]
		}
		return s
	}
	if obj.Description != "" {
		return obj.Description
	}
	return string(obj.Type)
}

func truncateURL(u string) string {
	if len(u) > 120 {
		return u[:120] + "..."
	}
	return u
}
