package watch

import "testing"

func TestErrorCollectorKeepsDuplicates(t *testing.T) {
	c := NewErrorCollector()

	c.Append("admin", TagPageError, "TypeError: x is undefined", "http://app/admin")
	c.Append("admin", TagPageError, "TypeError: x is undefined", "http://app/admin")
	c.Append("admin", TagConsole, "failed to load schedule", "http://app/admin")

	got := c.Snapshot("admin")
	if len(got) != 3 {
		t.Fatalf("got %d entries; want 3 (duplicates kept)", len(got))
	}
	if got[0].Text != got[1].Text {
		t.Error("expected both duplicate entries preserved")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Seq <= got[i-1].Seq {
			t.Fatalf("seq not strictly increasing: %d then %d", got[i-1].Seq, got[i].Seq)
		}
	}
}

func TestErrorCollectorIsolatesRoles(t *testing.T) {
	c := NewErrorCollector()

	c.Append("admin", TagPageError, "admin fault", "")
	c.Append("fan", TagConsole, "fan fault", "")

	if n := c.Count("admin"); n != 1 {
		t.Errorf("admin count = %d; want 1", n)
	}
	if n := c.Count("manager"); n != 0 {
		t.Errorf("manager count = %d; want 0", n)
	}
	if got := c.Snapshot("fan"); len(got) != 1 || got[0].Tag != TagConsole {
		t.Errorf("fan snapshot = %+v; want single console entry", got)
	}
}

func TestErrorCollectorResetContinuesSequence(t *testing.T) {
	c := NewErrorCollector()

	c.Append("admin", TagPageError, "before reset", "")
	firstSeq := c.Snapshot("admin")[0].Seq

	c.Reset("admin")
	if n := c.Count("admin"); n != 0 {
		t.Fatalf("count after reset = %d; want 0", n)
	}

	c.Append("admin", TagPageError, "after reset", "")
	got := c.Snapshot("admin")
	if len(got) != 1 {
		t.Fatalf("got %d entries after reset; want 1", len(got))
	}
	if got[0].Seq <= firstSeq {
		t.Fatalf("seq after reset = %d; want > %d", got[0].Seq, firstSeq)
	}
}

func TestErrorCollectorSnapshotIsCopy(t *testing.T) {
	c := NewErrorCollector()
	c.Append("admin", TagPageError, "original", "")

	snap := c.Snapshot("admin")
	snap[0].Text = "mutated"

	if got := c.Snapshot("admin")[0].Text; got != "original" {
		t.Fatalf("collector entry = %q; want %q", got, "original")
	}
}
