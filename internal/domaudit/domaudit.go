// Package domaudit resolves tab labels against static HTML, mirroring the
// in-page resolver's strategy order over a goquery document. It exists for
// offline auditing of exported panel markup and for exercising the strategy
// order without a browser; the live resolver in cdpprobe remains the one
// the probe actually runs.
package domaudit

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/baysah/panel_agent/internal/label"
)

const controlSelector = `button, a, [role="button"], [role="link"], [role="tab"]`

// Match is one resolved control in a static document.
type Match struct {
	Label    string `json:"label"`
	Strategy string `json:"strategy"`
	Index    int    `json:"index"`
	Tag      string `json:"tag"`
	Text     string `json:"text"`
}

// Report is the outcome of auditing one document against a label list.
type Report struct {
	Matches []Match  `json:"matches"`
	Missing []string `json:"missing,omitempty"`
}

// Resolver wraps a parsed document.
type Resolver struct {
	doc      *goquery.Document
	controls []*goquery.Selection
}

// NewResolver parses HTML from r.
func NewResolver(r io.Reader) (*Resolver, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("domaudit: parse: %w", err)
	}

	res := &Resolver{doc: doc}
	doc.Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		res.controls = append(res.controls, s)
	})
	return res, nil
}

// Resolve finds the control for a label. Strategy order matches the live
// resolver: accessible-name equality, text fragment, then data-tab slug.
// The second return is false when nothing matches.
func (r *Resolver) Resolve(lbl string) (Match, bool) {
	want := label.Fold(lbl)

	for i, s := range r.controls {
		if label.Fold(r.accName(s)) == want {
			return r.match(lbl, "role-name", i, s), true
		}
	}

	for i, s := range r.controls {
		if label.ContainsFold(text(s), lbl) {
			return r.match(lbl, "text-fragment", i, s), true
		}
	}

	slug := label.Slug(lbl)
	sel := r.doc.Find(fmt.Sprintf(`[data-tab=%q]`, slug)).First()
	if sel.Length() > 0 {
		idx := -1
		for i, s := range r.controls {
			if s.Nodes[0] == sel.Nodes[0] {
				idx = i
				break
			}
		}
		return r.match(lbl, "data-tab", idx, sel), true
	}

	return Match{}, false
}

func (r *Resolver) match(lbl, strategy string, index int, s *goquery.Selection) Match {
	tag := ""
	if len(s.Nodes) > 0 {
		tag = s.Nodes[0].Data
	}
	return Match{
		Label:    lbl,
		Strategy: strategy,
		Index:    index,
		Tag:      tag,
		Text:     text(s),
	}
}

// Audit resolves every label and splits them into matches and missing.
func (r *Resolver) Audit(labels []string) Report {
	var rep Report
	for _, lbl := range labels {
		if m, ok := r.Resolve(lbl); ok {
			rep.Matches = append(rep.Matches, m)
		} else {
			rep.Missing = append(rep.Missing, lbl)
		}
	}
	return rep
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func (r *Resolver) accName(s *goquery.Selection) string {
	if v, ok := s.Attr("aria-label"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if ref, ok := s.Attr("aria-labelledby"); ok {
		id := strings.Fields(ref)
		if len(id) > 0 {
			target := r.doc.Find("#" + id[0])
			if target.Length() > 0 {
				return text(target)
			}
		}
	}
	return text(s)
}
