package gams

import (
	"fmt"

	"github.com/lhaig/sdogams/internal/graph"
)

// InvariantError reports a graph shape that must never reach translation,
// such as a bare CONTROL operand or an unclassified symbol. It points at a
// bug in whatever built the graph.
type InvariantError struct {
	Node   int
	Op     graph.Op
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated at node %d (%s): %s", e.Node, e.Op, e.Reason)
}

// UnsupportedError reports an operator GAMS cannot express.
type UnsupportedError struct {
	Node int
	Op   graph.Op
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operator %s at node %d is not supported by the GAMS backend", e.Op, e.Node)
}

func invariant(n *graph.Node, format string, args ...any) error {
	return &InvariantError{Node: n.ID, Op: n.Op, Reason: fmt.Sprintf(format, args...)}
}
