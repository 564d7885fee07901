package graph

import (
	"strings"
	"testing"

	"github.com/lhaig/sdogams/internal/lookup"
)

func TestAnalyzeClassification(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	c := g.Constant(5)
	mustBind(t, g, "C", c)

	u := g.Control(1, g.Constant(0), g.Constant(2), g.Constant(4))
	mustBind(t, g, "U", u)

	x := g.NewNode(INTEG, nil, c)
	x.Child1 = g.NewNode(MINUS, u, x)
	mustBind(t, g, "X", x)

	s := g.NewNode(MULT, g.Time(), c)
	mustBind(t, g, "S", s)

	d := g.NewNode(PLUS, x, s)
	mustBind(t, g, "D", d)

	k := g.NewNode(PLUS, c, g.Constant(1))
	mustBind(t, g, "K", k)

	st := g.NewNode(STEP, g.Constant(3), g.Constant(4))
	mustBind(t, g, "ST", st)

	if err := Analyze(g); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	tests := []struct {
		name  string
		class Class
	}{
		{"C", Constant},
		{"U", Dynamic},
		{"X", Dynamic},
		{"S", Static},
		{"D", Dynamic},
		{"K", Constant},
		{"ST", Static},
	}
	for _, tt := range tests {
		if got := g.Node(tt.name).Class; got != tt.class {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.class, got)
		}
	}

	if k.Value != 6 {
		t.Errorf("expected K = 6, got %g", k.Value)
	}
	if x.Value != 5 || x.Init != ConstantInit {
		t.Errorf("expected X initial 5 with constant init, got %g (%d)", x.Value, x.Init)
	}
	if u.Value != 2 {
		t.Errorf("expected U start value 2, got %g", u.Value)
	}
	if d.Value != 5 {
		t.Errorf("expected D initial 5, got %g", d.Value)
	}
}

func TestAnalyzeLevels(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	a := g.NewNode(MULT, g.Time(), g.Constant(2))
	mustBind(t, g, "A", a)
	b := g.NewNode(PLUS, a, g.Constant(1))
	mustBind(t, g, "B", b)

	if err := Analyze(g); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if g.Time().Level != 1 {
		t.Errorf("expected TIME level 1, got %d", g.Time().Level)
	}
	if a.Level != 2 || b.Level != 3 {
		t.Errorf("expected levels 2 and 3, got %d and %d", a.Level, b.Level)
	}
}

func TestAnalyzeTimeLevelFollowsTimeStep(t *testing.T) {
	g := New()
	mustBind(t, g, InitialTimeSymbol, g.Constant(0))
	mustBind(t, g, FinalTimeSymbol, g.Constant(1))
	step := g.NewNode(DIV, g.Constant(1), g.Constant(4))
	mustBind(t, g, TimeStepSymbol, step)
	a := g.NewNode(MULT, g.Time(), g.Constant(2))
	mustBind(t, g, "A", a)

	if err := Analyze(g); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if step.Level != 1 {
		t.Fatalf("expected TIME STEP level 1, got %d", step.Level)
	}
	if g.Time().Level != 2 {
		t.Errorf("expected TIME level 2, got %d", g.Time().Level)
	}
	if a.Level != 3 {
		t.Errorf("expected A level 3, got %d", a.Level)
	}
}

func TestAnalyzeControlledInitialValue(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	u := g.Control(0, nil, g.Constant(3), nil)
	mustBind(t, g, "U", u)
	x := g.NewNode(INTEG, g.Constant(1), u)
	mustBind(t, g, "X", x)

	if err := Analyze(g); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if x.Init != ControlInit {
		t.Error("expected control-determined initializer")
	}
	if x.Value != 3 {
		t.Errorf("expected initial value 3, got %g", x.Value)
	}
}

func TestAnalyzeAlgebraicLoop(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	a := g.NewNode(PLUS, nil, g.Constant(1))
	b := g.NewNode(MULT, a, g.Constant(2))
	a.Child1 = b
	mustBind(t, g, "A", a)

	err := Analyze(g)
	if err == nil {
		t.Fatal("expected algebraic loop error")
	}
	if !strings.Contains(err.Error(), "algebraic loop") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAnalyzeLookupAndWindows(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	tbl, err := lookup.New([]lookup.Point{{X: 0, Y: 0}, {X: 10, Y: 100}})
	if err != nil {
		t.Fatal(err)
	}
	lt := g.LookupTable(tbl)
	mustBind(t, g, "tbl", lt)
	ap := g.NewNode(APPLY_LOOKUP, lt, g.Constant(2))
	mustBind(t, g, "AP", ap)

	pulse := g.NewNode(PULSE, g.Constant(0), g.Constant(2))
	mustBind(t, g, "P", pulse)

	ramp := g.NewNode(RAMP, g.Constant(1), g.Constant(5), g.Constant(8))
	mustBind(t, g, "R", ramp)

	if err := Analyze(g); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if ap.Value != 20 || ap.Class != Constant {
		t.Errorf("expected constant lookup value 20, got %g (%s)", ap.Value, ap.Class)
	}
	if pulse.Value != 1 || pulse.Class != Static {
		t.Errorf("expected active static pulse, got %g (%s)", pulse.Value, pulse.Class)
	}
	if ramp.Value != 0 {
		t.Errorf("expected ramp 0 before start, got %g", ramp.Value)
	}
}

func TestAnalyzeRejectsMissingChild(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	mustBind(t, g, "bad", g.NewNode(DIV, g.Constant(1)))
	if err := Analyze(g); err == nil {
		t.Error("expected error for missing divisor")
	}
}
