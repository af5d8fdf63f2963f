package diagnostics

import "testing"

func TestBagCounts(t *testing.T) {
	b := NewBag("x86-64")
	b.Warnf(3, "register pool exhausted for t%d", 7)
	b.Errorf(-1, "broken")

	if b.WarningCount() != 1 || b.ErrorCount() != 1 || !b.HasErrors() {
		t.Errorf("counts: warn=%d err=%d", b.WarningCount(), b.ErrorCount())
	}

	diags := b.Diagnostics()
	if got := diags[0].String(); got != "x86-64: warning at instruction 3: register pool exhausted for t7" {
		t.Errorf("got %q", got)
	}
	if got := diags[1].String(); got != "x86-64: error: broken" {
		t.Errorf("got %q", got)
	}

	diags[0] = nil
	if b.Diagnostics()[0] == nil {
		t.Error("Diagnostics returned the internal slice")
	}
}
