package label

import "testing"

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AI Queue", "ai-queue"},
		{"Ops", "ops"},
		{"  Policies  ", "policies"},
		{"AI\t Queue", "ai-queue"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEqualFold(t *testing.T) {
	if !EqualFold("AI Queue", "ai  queue") {
		t.Fatal("EqualFold should collapse whitespace before comparing")
	}
	if EqualFold("Ops", "Opsy") {
		t.Fatal("EqualFold must be a full-string match")
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Open the AI Queue panel", "ai queue") {
		t.Fatal("ContainsFold should match a case-insensitive fragment")
	}
	if ContainsFold("Operations", "Ops Center") {
		t.Fatal("ContainsFold matched a label absent from the text")
	}
}
