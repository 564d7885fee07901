package gams

import (
	"fmt"
	"strings"

	"github.com/lhaig/sdogams/internal/escape"
	"github.com/lhaig/sdogams/internal/graph"
)

// varSets renders the index domain of states and algebraic variables.
func (e *emitter) varSets() string {
	if e.tab.SingleStage() {
		return e.sets.render(Index("t"))
	}
	return e.sets.render(Index("t"), Index("p"))
}

// initialSets renders the index selecting the first period.
func (e *emitter) initialSets() string {
	if e.tab.SingleStage() {
		return e.sets.render(First("t"))
	}
	return e.sets.render(First("t"), First("p"))
}

// controlDomain returns the parenthesized domain of a control variable, or
// nothing for a scalar control.
func controlDomain(size int) string {
	switch size {
	case 0:
		return ""
	case 1:
		return "(t)"
	default:
		return fmt.Sprintf("(t%d)", size)
	}
}

// domain returns the declaration domain of a named dynamic node.
func (e *emitter) domain(n *graph.Node) string {
	if n.Op == graph.CONTROL {
		return controlDomain(n.ControlSize)
	}
	return "(" + e.varSets() + ")"
}

// translateSymbol writes a reference to a symbol.
func (e *emitter) translateSymbol(sb *strings.Builder, name string, initial bool) error {
	n := e.g.Node(name)
	if n == nil {
		return fmt.Errorf("unknown symbol '%s'", name)
	}
	ident := escape.Identifier(name)

	switch n.Class {
	case graph.Constant:
		sb.WriteString(ident)

	case graph.Dynamic:
		if n.Op == graph.CONTROL {
			e.controlRef(sb, ident, n.ControlSize, initial)
			return nil
		}
		sb.WriteString(ident)
		if !initial {
			sb.WriteString("(" + e.varSets() + ")")
			return nil
		}
		// A fixed initial value lives in the lower bound.
		if n.Op == graph.INTEG && n.Init == graph.ConstantInit {
			sb.WriteString(".lo")
		}
		sb.WriteString("(" + e.initialSets() + ")")

	case graph.Static:
		sb.WriteString(ident + "(" + e.sets.render(Index("t")) + ")")

	default:
		return invariant(n, "symbol '%s' has unknown classification", name)
	}
	return nil
}

// controlRef writes a control reference. Controls held over blocks of size
// periods are summed over the block containing the current period.
func (e *emitter) controlRef(sb *strings.Builder, ident string, size int, initial bool) {
	switch {
	case size == 0:
		sb.WriteString(ident)
	case size == 1 && initial:
		sb.WriteString(ident + "(" + e.sets.render(First("t")) + ")")
	case size == 1:
		sb.WriteString(ident + "(" + e.sets.render(Index("t")) + ")")
	case initial:
		sb.WriteString(ident + "('0')")
	default:
		t := e.sets.render(Index("t"))
		fmt.Fprintf(sb, "sum(t%[1]d$(ord(%[2]s) > (ord(t%[1]d)-1)*%[1]d and ord(%[2]s) <= ord(t%[1]d)*%[1]d),%[3]s(t%[1]d))",
			size, t, ident)
	}
}
