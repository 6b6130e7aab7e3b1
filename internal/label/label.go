// Package label holds the single normalization discipline for tab labels.
// Every layer that compares a logical label against markup (the in-page
// resolver, the static-HTML auditor, and suite validation) goes through
// these helpers so a label like "AI Queue" maps to the same slug everywhere.
package label

import "strings"

// Slug converts a logical label to its data-attribute form: lower-cased,
// trimmed, runs of whitespace collapsed to single hyphens.
// "AI Queue" -> "ai-queue".
func Slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "-")
}

// Fold normalizes a label or element text for case-insensitive comparison:
// trimmed, inner whitespace collapsed to single spaces, lower-cased.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// EqualFold reports whether two labels match under Fold normalization.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ContainsFold reports whether text contains label as a normalized fragment.
func ContainsFold(text, label string) bool {
	return strings.Contains(Fold(text), Fold(label))
}
