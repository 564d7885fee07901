package gams

import (
	"reflect"
	"testing"
)

func TestRenderDepthAndOffset(t *testing.T) {
	r := newSetRegistry()
	r.create("t")
	r.create("p")

	tests := []struct {
		indices []SetIndex
		want    string
	}{
		{[]SetIndex{Index("t")}, "t"},
		{[]SetIndex{Offset("t", 1)}, "t+1"},
		{[]SetIndex{Offset("t", -2)}, "t-2"},
		{[]SetIndex{First("t")}, "'0'"},
		{[]SetIndex{Index("t"), Index("p")}, "t, p"},
		{[]SetIndex{Offset("t", 1), First("p")}, "t+1, '0'"},
	}
	for _, tt := range tests {
		if got := r.render(tt.indices...); got != tt.want {
			t.Errorf("render(%v) = %q, want %q", tt.indices, got, tt.want)
		}
	}

	release := r.enter("t")
	if got := r.render(Index("t"), Index("p")); got != "tt, p" {
		t.Errorf("expected 'tt, p' at depth 1, got %q", got)
	}
	release2 := r.enter("t")
	if got := r.render(Offset("t", 1)); got != "ttt+1" {
		t.Errorf("expected 'ttt+1' at depth 2, got %q", got)
	}
	if got := r.render(First("t")); got != "'0'" {
		t.Errorf("first marker should ignore depth, got %q", got)
	}
	release2()
	release()

	if !r.balanced() {
		t.Error("expected balanced registry")
	}
	if got := r.render(Index("t")); got != "t" {
		t.Errorf("expected 't' after release, got %q", got)
	}
}

func TestAliases(t *testing.T) {
	r := newSetRegistry()
	r.create("t")
	r.create("p")

	if got := r.aliases(); len(got) != 0 {
		t.Errorf("expected no aliases, got %v", got)
	}

	outer := r.enter("t")
	inner := r.enter("t")
	inner()
	outer()
	r.enter("p")()

	want := []string{"alias(t, tt);", "alias(t, ttt);", "alias(p, pp);"}
	if got := r.aliases(); !reflect.DeepEqual(got, want) {
		t.Errorf("aliases = %v, want %v", got, want)
	}
}

func TestLeaveWithoutEnterPanics(t *testing.T) {
	r := newSetRegistry()
	r.create("t")
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unmatched leave")
		}
	}()
	r.leave("t")
}

func TestUnknownSetPanics(t *testing.T) {
	r := newSetRegistry()
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unknown set")
		}
	}()
	r.render(Index("q"))
}
