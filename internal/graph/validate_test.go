package graph

import (
	"strings"
	"testing"

	"github.com/lhaig/sdogams/internal/lookup"
)

func containsMessage(errors []string, substr string) bool {
	for _, e := range errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateValidGraph(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	x := g.NewNode(INTEG, g.Constant(1), g.Constant(0))
	mustBind(t, g, "X", x)
	if err := Analyze(g); err != nil {
		t.Fatal(err)
	}
	if errors := Validate(g); len(errors) > 0 {
		t.Errorf("expected no errors, got: %v", errors)
	}
}

func TestValidateMissingHorizon(t *testing.T) {
	g := New()
	errors := Validate(g)
	for _, name := range []string{InitialTimeSymbol, FinalTimeSymbol, TimeStepSymbol} {
		if !containsMessage(errors, "missing symbol '"+name+"'") {
			t.Errorf("expected missing %s, got %v", name, errors)
		}
	}
}

func TestValidateHorizonValues(t *testing.T) {
	g := newTimedGraph(t, 10, 0, 0)
	if err := Analyze(g); err != nil {
		t.Fatal(err)
	}
	errors := Validate(g)
	if !containsMessage(errors, "must be positive") {
		t.Errorf("expected time step error, got %v", errors)
	}
	if !containsMessage(errors, "is before") {
		t.Errorf("expected ordering error, got %v", errors)
	}
}

func TestValidateShapes(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	mustBind(t, g, "noTable", g.NewNode(APPLY_LOOKUP, g.Constant(1), g.Constant(2)))
	mustBind(t, g, "train", g.NewNode(PULSE_TRAIN, g.Constant(1), g.Constant(2), g.Constant(3)))
	mustBind(t, g, "short", g.NewNode(IF, g.Constant(1), g.Constant(2)))
	mustBind(t, g, "emptyTable", g.NewNode(LOOKUP_TABLE))
	mustBind(t, g, "nothing", g.NewNode(NIL))

	errors := Validate(g)
	for _, want := range []string{
		"must apply a lookup table",
		"needs a pulse(start, width)",
		"is missing child 3",
		"has no table",
		"bound to a nil node",
		"unknown classification",
	} {
		if !containsMessage(errors, want) {
			t.Errorf("expected %q in %v", want, errors)
		}
	}
}

func TestValidateAcceptsPulseTrain(t *testing.T) {
	g := newTimedGraph(t, 0, 10, 1)
	tbl, _ := lookup.New([]lookup.Point{{X: 0, Y: 1}})
	mustBind(t, g, "tbl", g.LookupTable(tbl))
	pulse := g.NewNode(PULSE, g.Constant(1), g.Constant(1))
	mustBind(t, g, "train", g.NewNode(PULSE_TRAIN, pulse, g.Constant(3), g.Constant(9)))
	if err := Analyze(g); err != nil {
		t.Fatal(err)
	}
	if errors := Validate(g); len(errors) > 0 {
		t.Errorf("expected no errors, got %v", errors)
	}
}
