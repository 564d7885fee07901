package graph

import (
	"fmt"
	"strings"

	"github.com/lhaig/sdogams/internal/lookup"
)

// Op identifies the operator of an expression node.
type Op int

const (
	NIL Op = iota
	CONSTANT
	TIME
	CONTROL
	LOOKUP_TABLE
	INTEG
	IF
	DELAY_FIXED
	PULSE_TRAIN
	RAMP
	APPLY_LOOKUP
	PULSE
	ACTIVE_INITIAL
	STEP
	RANDOM_UNIFORM
	PLUS
	MINUS
	MULT
	DIV
	G
	GE
	L
	LE
	EQ
	NEQ
	AND
	OR
	POWER
	LOG
	MIN
	MAX
	MODULO
	INITIAL
	UMINUS
	SQRT
	EXP
	LN
	ABS
	INTEGER
	NOT
	SIN
	COS
	TAN
	ARCSIN
	ARCCOS
	ARCTAN
	SINH
	COSH
	TANH

	numOps
)

var opNames = [...]string{
	NIL:            "nil",
	CONSTANT:       "constant",
	TIME:           "time",
	CONTROL:        "control",
	LOOKUP_TABLE:   "lookup_table",
	INTEG:          "integ",
	IF:             "if",
	DELAY_FIXED:    "delay_fixed",
	PULSE_TRAIN:    "pulse_train",
	RAMP:           "ramp",
	APPLY_LOOKUP:   "apply_lookup",
	PULSE:          "pulse",
	ACTIVE_INITIAL: "active_initial",
	STEP:           "step",
	RANDOM_UNIFORM: "random_uniform",
	PLUS:           "plus",
	MINUS:          "minus",
	MULT:           "mult",
	DIV:            "div",
	G:              "g",
	GE:             "ge",
	L:              "l",
	LE:             "le",
	EQ:             "eq",
	NEQ:            "neq",
	AND:            "and",
	OR:             "or",
	POWER:          "power",
	LOG:            "log",
	MIN:            "min",
	MAX:            "max",
	MODULO:         "modulo",
	INITIAL:        "initial",
	UMINUS:         "uminus",
	SQRT:           "sqrt",
	EXP:            "exp",
	LN:             "ln",
	ABS:            "abs",
	INTEGER:        "integer",
	NOT:            "not",
	SIN:            "sin",
	COS:            "cos",
	TAN:            "tan",
	ARCSIN:         "arcsin",
	ARCCOS:         "arccos",
	ARCTAN:         "arctan",
	SINH:           "sinh",
	COSH:           "cosh",
	TANH:           "tanh",
}

// String returns the lowercase operator name.
func (op Op) String() string {
	if op >= 0 && op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// ParseOp resolves an operator by its lowercase name.
func ParseOp(name string) (Op, error) {
	name = strings.ToLower(name)
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return NIL, fmt.Errorf("unknown operator '%s'", name)
}

// Arity returns the number of children an operator requires. Controls carry
// up to three optional bound children and report zero.
func (op Op) Arity() int {
	switch op {
	case IF, DELAY_FIXED, PULSE_TRAIN, RAMP:
		return 3
	case INTEG, APPLY_LOOKUP, PULSE, ACTIVE_INITIAL, STEP, RANDOM_UNIFORM,
		PLUS, MINUS, MULT, DIV, G, GE, L, LE, EQ, NEQ, AND, OR,
		POWER, LOG, MIN, MAX, MODULO:
		return 2
	case INITIAL, UMINUS, SQRT, EXP, LN, ABS, INTEGER, NOT,
		SIN, COS, TAN, ARCSIN, ARCCOS, ARCTAN, SINH, COSH, TANH:
		return 1
	default:
		return 0
	}
}

// Class tells how a node's value varies over a simulation.
type Class int

const (
	Unknown  Class = iota
	Constant       // fixed at analysis time
	Static         // time-varying, independent of states and controls
	Dynamic        // depends on states or controls
)

// String returns the classification name.
func (c Class) String() string {
	switch c {
	case Constant:
		return "constant"
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// InitKind is the initialization policy of an integrator.
type InitKind int

const (
	ConstantInit InitKind = iota
	ControlInit
)

// Node is a vertex of the expression graph. Nodes are owned by a Graph and
// identified by ID; the same node may have several parents.
type Node struct {
	ID     int
	Op     Op
	Class  Class
	Child1 *Node
	Child2 *Node
	Child3 *Node

	// Value is the literal of a CONSTANT node and the initial value of
	// every other node after analysis.
	Value float64

	// Table is set on LOOKUP_TABLE nodes.
	Table *lookup.Table

	// ControlSize is the block size of a CONTROL node: 0 for a scalar,
	// 1 for one value per period, N for one value per N periods.
	ControlSize int

	// Init is the initialization policy of an INTEG node.
	Init InitKind

	// Level is the topological rank used to order emitted statements.
	Level int

	// Usages lists source locations referring to the node, for display only.
	Usages []string
}

// Children returns the non-nil children in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, c := range [...]*Node{n.Child1, n.Child2, n.Child3} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
