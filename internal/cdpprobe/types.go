package cdpprobe

import "fmt"

const (
	CodeValidation        = "VALIDATION"
	CodePanelNotFound     = "PANEL_NOT_FOUND"
	CodeTabNotFound       = "TAB_NOT_FOUND"
	CodeReadyTimeout      = "READY_TIMEOUT"
	CodePaneInvariant     = "PANE_INVARIANT"
	CodeEvalFailure       = "EVAL_FAILURE"
	CodeEvalTimeout       = "EVAL_TIMEOUT"
	CodeCDPUnavailable    = "CDP_UNAVAILABLE"
	CodeNavigationFailure = "NAVIGATION_FAILURE"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// PanelInfo describes a role panel tab mapped from a browser target.
type PanelInfo struct {
	Role     string `json:"role"`
	TargetID string `json:"target_id"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
}

// Box is an element bounding box in viewport coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ControlHandle identifies one interactive element resolved from a label.
// Index is the element's position in the page's interactive-control list;
// with no DOM mutation between calls, the same label resolves to the same
// index.
type ControlHandle struct {
	Label    string `json:"label"`
	Strategy string `json:"strategy"` // "role-name", "text-fragment", "data-tab"
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Text     string `json:"text,omitempty"`
	Box      Box    `json:"box"`
	Visible  bool   `json:"visible"`
}

// Activation reports how a tab activation was confirmed.
// Signal is "hash", "aria", "pane", or "none" when the bounded wait expired
// without any of the three signals firing (not fatal by itself).
type Activation struct {
	Label       string `json:"label"`
	Strategy    string `json:"strategy"`
	Signal      string `json:"signal"`
	HashBefore  string `json:"hash_before"`
	HashAfter   string `json:"hash_after"`
	ForcedClick bool   `json:"forced_click"`
}

// Panes is a snapshot of the tabbed container's pane set.
// Skipped is true when the page does not use the pane convention at all;
// the single-visible-pane invariant is then vacuously satisfied.
type Panes struct {
	Total      int      `json:"total"`
	Visible    int      `json:"visible"`
	VisibleIDs []string `json:"visible_ids"`
	Skipped    bool     `json:"skipped"`
}

// Readiness is one readiness poll observation.
type Readiness struct {
	RootPresent bool `json:"root_present"`
	RootVisible bool `json:"root_visible"`
	BodyHasText bool `json:"body_has_text"`
}

// Ready reports whether this observation satisfies the readiness policy:
// a dedicated app root must be visible when present; otherwise the body must
// contain non-whitespace text (a blank white screen never passes).
func (r Readiness) Ready() bool {
	if r.RootPresent {
		return r.RootVisible
	}
	return r.BodyHasText
}

// NavResult reports the outcome of a page navigation.
type NavResult struct {
	URL       string `json:"url"`
	FrameID   string `json:"frame_id,omitempty"`
	ErrorText string `json:"error_text,omitempty"`
}
