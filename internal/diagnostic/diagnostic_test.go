package diagnostic

import (
	"testing"
)

func TestCounts(t *testing.T) {
	d := New()
	d.Errorf("X", "bad %s", "thing")
	d.Warningf("", "odd")
	d.Infof("U", "note")
	d.WarningWithHint("Y", "careful", "do less")

	if d.Count() != 4 {
		t.Errorf("expected 4 diagnostics, got %d", d.Count())
	}
	if d.ErrorCount() != 1 || d.WarningCount() != 2 {
		t.Errorf("expected 1 error and 2 warnings, got %d and %d", d.ErrorCount(), d.WarningCount())
	}
	if !d.HasErrors() {
		t.Error("expected HasErrors")
	}
	if errs := d.Errors(); len(errs) != 1 || errs[0].Message != "bad thing" {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestFormat(t *testing.T) {
	d := New()
	if d.Format("m.yaml") != "" {
		t.Error("expected empty output for no diagnostics")
	}

	d.ErrorWithHint("Stock", "duplicate name", "rename it")
	d.Warningf("", "lookup 'effect' is never applied")

	want := "error[m.yaml:Stock]: duplicate name\n  hint: rename it\nwarning[m.yaml]: lookup 'effect' is never applied"
	if got := d.Format("m.yaml"); got != want {
		t.Errorf("unexpected format:\n%s\nwant:\n%s", got, want)
	}
}

func TestMerge(t *testing.T) {
	a := New()
	a.Infof("", "one")
	b := New()
	b.Errorf("", "two")
	a.Merge(b)
	a.Merge(nil)
	if a.Count() != 2 || !a.HasErrors() {
		t.Errorf("expected merged diagnostics, got %v", a.All())
	}
}
