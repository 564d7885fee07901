package graph

import (
	"strings"
	"testing"

	"github.com/lhaig/sdogams/internal/lookup"
)

// newTimedGraph returns a graph with the horizon symbols bound.
func newTimedGraph(t *testing.T, t0, t1, dt float64) *Graph {
	t.Helper()
	g := New()
	mustBind(t, g, InitialTimeSymbol, g.Constant(t0))
	mustBind(t, g, FinalTimeSymbol, g.Constant(t1))
	mustBind(t, g, TimeStepSymbol, g.Constant(dt))
	return g
}

func mustBind(t *testing.T, g *Graph, name string, n *Node) {
	t.Helper()
	if err := g.Bind(name, n); err != nil {
		t.Fatalf("Bind(%q) failed: %v", name, err)
	}
}

func TestBindAndLookup(t *testing.T) {
	g := New()
	n := g.Constant(3)
	mustBind(t, g, "A", n)

	if g.Node("A") != n {
		t.Error("expected Node(A) to return the bound node")
	}
	name, ok := g.SymbolOf(n)
	if !ok || name != "A" {
		t.Errorf("expected symbol A, got %q (%v)", name, ok)
	}
	if err := g.Bind("A", g.Constant(4)); err == nil {
		t.Error("expected error on duplicate binding")
	}
	if err := g.Bind("B", nil); err == nil {
		t.Error("expected error binding a nil node")
	}
}

func TestSymbolOfPicksSmallestName(t *testing.T) {
	g := New()
	n := g.Constant(1)
	mustBind(t, g, "zeta", n)
	mustBind(t, g, "alpha", n)
	mustBind(t, g, "mu", n)

	name, _ := g.SymbolOf(n)
	if name != "alpha" {
		t.Errorf("expected alpha, got %q", name)
	}
	if got := g.SymbolsOf(n); len(got) != 3 {
		t.Errorf("expected 3 symbols, got %v", got)
	}

	syms := g.Symbols()
	if syms[0].Name != "zeta" || syms[1].Name != "alpha" || syms[2].Name != "mu" {
		t.Errorf("expected insertion order, got %v", syms)
	}
}

func TestNodeIDsAreArenaIndices(t *testing.T) {
	g := New()
	a := g.Constant(1)
	b := g.Constant(2)
	c := g.NewNode(PLUS, a, b)
	for i, n := range g.Nodes() {
		if n.ID != i {
			t.Errorf("node %d has ID %d", i, n.ID)
		}
	}
	if c.Child1 != a || c.Child2 != b || c.Child3 != nil {
		t.Error("children not assigned in order")
	}
	if g.Time() != g.Time() {
		t.Error("Time() should return a single leaf")
	}
}

func TestHorizonAccessors(t *testing.T) {
	g := newTimedGraph(t, 2, 12, 0.5)
	if g.InitialTime() != 2 || g.FinalTime() != 12 || g.TimeStep() != 0.5 {
		t.Errorf("unexpected horizon %g..%g step %g", g.InitialTime(), g.FinalTime(), g.TimeStep())
	}
}

func TestComments(t *testing.T) {
	g := New()
	g.SetComment("A", "stock of things")
	if g.Comment("A") != "stock of things" || g.Comment("B") != "" {
		t.Error("unexpected comment lookup")
	}
}

func TestParseOp(t *testing.T) {
	for op := NIL; op < numOps; op++ {
		got, err := ParseOp(op.String())
		if err != nil || got != op {
			t.Errorf("ParseOp(%q) = %v, %v", op.String(), got, err)
		}
	}
	if _, err := ParseOp("frobnicate"); err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestPrint(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	tbl, err := lookup.New([]lookup.Point{{X: 0, Y: 0}, {X: 1, Y: 2}})
	if err != nil {
		t.Fatal(err)
	}
	lt := g.LookupTable(tbl)
	mustBind(t, g, "effect", lt)

	x := g.NewNode(INTEG, nil, g.Constant(0))
	x.Child1 = g.NewNode(MINUS, g.Constant(1), x)
	mustBind(t, g, "X", x)

	y := g.NewNode(APPLY_LOOKUP, lt, g.NewNode(MULT, x, g.Time()))
	mustBind(t, g, "Y", y)

	if got := Print(g, x); got != "INTEG((1 - X), 0)" {
		t.Errorf("unexpected print of X: %q", got)
	}
	if got := Print(g, y); got != "effect((X * Time))" {
		t.Errorf("unexpected print of Y: %q", got)
	}

	out := PrintSymbols(g)
	if !strings.Contains(out, "effect [unknown, level 0] = lookup((0,0), (1,2))") {
		t.Errorf("unexpected symbol listing:\n%s", out)
	}
}

func TestPrintUnnamedCycle(t *testing.T) {
	g := New()
	x := g.NewNode(INTEG, nil, g.Constant(0))
	x.Child1 = g.NewNode(UMINUS, x)
	if got := Print(g, x); got != "INTEG(-(...), 0)" {
		t.Errorf("unexpected print: %q", got)
	}
}
