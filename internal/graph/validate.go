package graph

import (
	"fmt"
)

// Validate checks the graph for structural problems and returns a list of
// error messages. An empty slice indicates the graph can be translated.
func Validate(g *Graph) []string {
	var errors []string

	for _, name := range []string{InitialTimeSymbol, FinalTimeSymbol, TimeStepSymbol} {
		n := g.Node(name)
		if n == nil {
			errors = append(errors, fmt.Sprintf("missing symbol '%s'", name))
			continue
		}
		if n.Class != Constant {
			errors = append(errors, fmt.Sprintf("symbol '%s' must be constant, is %s", name, n.Class))
		}
	}

	if n := g.Node(TimeStepSymbol); n != nil && n.Value <= 0 {
		errors = append(errors, fmt.Sprintf("'%s' must be positive, got %g", TimeStepSymbol, n.Value))
	}
	if g.Node(InitialTimeSymbol) != nil && g.Node(FinalTimeSymbol) != nil && g.FinalTime() < g.InitialTime() {
		errors = append(errors, fmt.Sprintf("'%s' (%g) is before '%s' (%g)",
			FinalTimeSymbol, g.FinalTime(), InitialTimeSymbol, g.InitialTime()))
	}

	for _, n := range g.nodes {
		if err := checkShape(n); err != nil {
			errors = append(errors, err.Error())
		}
	}

	for _, b := range g.bindings {
		if b.Node.Class == Unknown {
			errors = append(errors, fmt.Sprintf("symbol '%s' has unknown classification", b.Name))
		}
		if b.Node.Op == NIL {
			errors = append(errors, fmt.Sprintf("symbol '%s' is bound to a nil node", b.Name))
		}
	}

	return errors
}

// checkShape verifies the children an operator relies on.
func checkShape(n *Node) error {
	children := [...]*Node{n.Child1, n.Child2, n.Child3}
	for i := 0; i < n.Op.Arity(); i++ {
		if children[i] == nil {
			return fmt.Errorf("node %d (%s) is missing child %d", n.ID, n.Op, i+1)
		}
	}

	switch n.Op {
	case APPLY_LOOKUP:
		if n.Child1.Op != LOOKUP_TABLE || n.Child1.Table == nil {
			return fmt.Errorf("node %d (apply_lookup) must apply a lookup table, got %s", n.ID, n.Child1.Op)
		}
	case LOOKUP_TABLE:
		if n.Table == nil {
			return fmt.Errorf("node %d (lookup_table) has no table", n.ID)
		}
	case PULSE_TRAIN:
		if n.Child1.Op != PULSE || n.Child1.Child1 == nil || n.Child1.Child2 == nil {
			return fmt.Errorf("node %d (pulse_train) needs a pulse(start, width) as first child", n.ID)
		}
	case CONTROL:
		if n.ControlSize < 0 {
			return fmt.Errorf("node %d (control) has negative block size %d", n.ID, n.ControlSize)
		}
	}
	return nil
}
