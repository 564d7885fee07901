package gams

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lhaig/sdogams/internal/graph"
)

// mode selects how a node is translated.
type mode struct {
	def     bool // expand the root node even if it has a symbol
	initial bool // translate the value at the first period
}

var (
	definition   = mode{def: true}
	reference    = mode{}
	initialValue = mode{initial: true}
)

var unaryPrefix = map[graph.Op]string{
	graph.ABS:     "abs(",
	graph.SIN:     "sin(",
	graph.COS:     "cos(",
	graph.TAN:     "tan(",
	graph.ARCSIN:  "arcsin(",
	graph.ARCCOS:  "arccos(",
	graph.ARCTAN:  "arctan(",
	graph.SINH:    "sinh(",
	graph.COSH:    "cosh(",
	graph.TANH:    "tanh(",
	graph.EXP:     "exp(",
	graph.INTEGER: "floor(",
	graph.LN:      "log(",
	graph.UMINUS:  "-(",
	graph.NOT:     "not (",
	graph.SQRT:    "sqrt(",
}

// binaryForm holds the text before, between and after the two operands.
type binaryForm [3]string

var binaryForms = map[graph.Op]binaryForm{
	graph.PLUS:   {"", "+", ""},
	graph.MINUS:  {"", "-(", ")"},
	graph.MULT:   {"(", ")*(", ")"},
	graph.DIV:    {"(", ")/(", ")"},
	graph.AND:    {"(", " and ", ")"},
	graph.OR:     {"(", " or ", ")"},
	graph.L:      {"(", " < ", ")"},
	graph.LE:     {"(", " <= ", ")"},
	graph.G:      {"(", " > ", ")"},
	graph.GE:     {"(", " >= ", ")"},
	graph.EQ:     {"(", " eq ", ")"},
	graph.NEQ:    {"(", " <> ", ")"},
	graph.LOG:    {"log(", ")/log(", ")"},
	graph.POWER:  {"(", ")**(", ")"},
	graph.MIN:    {"min(", ", ", ")"},
	graph.MAX:    {"max(", ", ", ")"},
	graph.MODULO: {"mod(", ", ", ")"},
}

// number formats a literal the way GAMS reads it.
func number(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "na"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	// 1e-09 -> 1e-9
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

// translate writes the GAMS expression of root.
func (e *emitter) translate(sb *strings.Builder, root *graph.Node, m mode) error {
	return e.expr(sb, root, m, true)
}

// seq writes literal strings and translated operands in order.
func (e *emitter) seq(sb *strings.Builder, m mode, parts ...any) error {
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			sb.WriteString(v)
		case *graph.Node:
			if err := e.expr(sb, v, m, false); err != nil {
				return err
			}
		default:
			panic(fmt.Sprintf("gams: unexpected sequence part %T", p))
		}
	}
	return nil
}

// within runs fn one level deeper into the named set.
func (e *emitter) within(set string, fn func() error) error {
	release := e.sets.enter(set)
	defer release()
	return fn()
}

func (e *emitter) timeRef() string {
	return "TIME(" + e.sets.render(Index("t")) + ")"
}

func (e *emitter) expr(sb *strings.Builder, n *graph.Node, m mode, root bool) error {
	if n == nil {
		return &InvariantError{Node: -1, Op: graph.NIL, Reason: "missing operand"}
	}

	if !m.def || !root {
		if name, ok := e.g.SymbolOf(n); ok {
			// Outside integrators and controls the initial value is a
			// number known from analysis. A control is a decision
			// variable, so its start value is only a level and the
			// reference U('0') is kept instead.
			if m.initial && n.Op != graph.INTEG && n.Op != graph.CONTROL {
				sb.WriteString(number(n.Value))
				return nil
			}
			return e.translateSymbol(sb, name, m.initial)
		}
	}

	if prefix, ok := unaryPrefix[n.Op]; ok {
		return e.seq(sb, m, prefix, n.Child1, ")")
	}
	if f, ok := binaryForms[n.Op]; ok {
		return e.seq(sb, m, f[0], n.Child1, f[1], n.Child2, f[2])
	}

	switch n.Op {
	case graph.INTEG:
		if m.initial {
			return e.expr(sb, n.Child2, m, false)
		}
		return e.expr(sb, n.Child1, m, false)

	case graph.TIME:
		sb.WriteString(e.timeRef())
		return nil

	case graph.CONSTANT:
		sb.WriteString(number(n.Value))
		return nil

	case graph.IF:
		return e.seq(sb, m, "(", n.Child1, ")*(", n.Child2, ")+(1-(", n.Child1, "))*(", n.Child3, ")")

	case graph.ACTIVE_INITIAL:
		if m.initial {
			return e.expr(sb, n.Child2, m, false)
		}
		return e.expr(sb, n.Child1, m, false)

	case graph.INITIAL:
		return e.expr(sb, n.Child1, mode{def: m.def, initial: true}, false)

	case graph.PULSE:
		t := e.timeRef()
		return e.seq(sb, m,
			"( ("+t+"+TIMESTEP/2) > ", n.Child1,
			" and ("+t+"+TIMESTEP/2) < (", n.Child1, "+", n.Child2, ") )")

	case graph.PULSE_TRAIN:
		t := e.timeRef()
		start, width := n.Child1.Child1, n.Child1.Child2
		return e.seq(sb, m,
			"(mod("+t+", ", n.Child2, ")+TIMESTEP/2) > ", start,
			" and (mod("+t+", ", n.Child2, ")+TIMESTEP/2) < (", start, "+", width,
			") and ( "+t+"+TIMESTEP/2 < ", n.Child3, ")")

	case graph.STEP:
		t := e.timeRef()
		return e.seq(sb, m, "("+t+"+TIMESTEP/2 > ", n.Child2, ")*(", n.Child1, ")")

	case graph.RAMP:
		t := e.timeRef()
		return e.seq(sb, m,
			"(", n.Child1, " * ( min("+t+",", n.Child3, ") - ", n.Child2,
			"))$("+t+" > ", n.Child2, ")")

	case graph.DELAY_FIXED:
		return e.delay(sb, n, m)

	case graph.APPLY_LOOKUP:
		return e.applyLookup(sb, n, m)

	case graph.RANDOM_UNIFORM:
		return &UnsupportedError{Node: n.ID, Op: n.Op}

	case graph.CONTROL:
		return invariant(n, "control without a symbol")

	case graph.LOOKUP_TABLE:
		return invariant(n, "lookup table used as an operand")

	case graph.NIL:
		return invariant(n, "nil node in expression")
	}

	return invariant(n, "operator cannot be translated")
}

// delay reads the input dt periods back through an inner alias of t and
// falls back to the initial value for the first dt periods.
func (e *emitter) delay(sb *strings.Builder, n *graph.Node, m mode) error {
	if m.initial {
		return e.expr(sb, n.Child3, m, false)
	}

	step := e.g.TimeStep()
	dt := int(math.Ceil(math.Min(n.Child2.Value, step) / step))

	outer := e.sets.render(Index("t"))
	err := e.within("t", func() error {
		inner := e.sets.render(Index("t"))
		fmt.Fprintf(sb, "sum( %s$(ord(%s) eq ord(%s) - %d), ", inner, inner, outer, dt)
		return e.expr(sb, n.Child1, m, false)
	})
	if err != nil {
		return err
	}

	sb.WriteString(")+(")
	if err := e.expr(sb, n.Child3, mode{def: m.def, initial: true}, false); err != nil {
		return err
	}
	fmt.Fprintf(sb, ")$( ord(%s) le %d )", outer, dt)
	return nil
}

func (e *emitter) applyLookup(sb *strings.Builder, n *graph.Node, m mode) error {
	table := n.Child1.Table
	if m.initial {
		sb.WriteString(number(table.Eval(n.Child2.Value)))
		return nil
	}

	d := e.lookups.get(table)
	if d == nil {
		return invariant(n, "lookup table is not registered")
	}
	name := d.Ident()

	if d.Formulation == Spline {
		return e.seq(sb, m, "Lookup(", n.Child2, ", lkp_"+name+")")
	}

	if id, ok := e.sos2[n.ID]; ok {
		fmt.Fprintf(sb, "sum(lkp_%[1]s_points, lkp_%[1]s%[2]d_lambda(%[3]s, lkp_%[1]s_points)*lkp_%[1]s_Y(lkp_%[1]s_points) )",
			name, id, e.varSets())
		return nil
	}
	return e.interpolate(sb, name, n.Child2, m)
}

// interpolate writes a piecewise-linear evaluation over the padded
// breakpoints of a SOS2 lookup. It serves call sites that are not dynamic
// and therefore have no lambda variables.
func (e *emitter) interpolate(sb *strings.Builder, name string, arg *graph.Node, m mode) error {
	var a strings.Builder
	if err := e.expr(&a, arg, m, false); err != nil {
		return err
	}
	x := "(" + a.String() + ")"
	p := "lkp_" + name + "_points"
	xs := "lkp_" + name + "_X"
	ys := "lkp_" + name + "_Y"

	fmt.Fprintf(sb, "sum(%[1]s$(ord(%[1]s) < card(%[1]s) and %[2]s >= %[3]s(%[1]s) and %[2]s < %[3]s(%[1]s+1)), "+
		"%[4]s(%[1]s)+(%[4]s(%[1]s+1)-%[4]s(%[1]s))*(%[2]s-%[3]s(%[1]s))/(%[3]s(%[1]s+1)-%[3]s(%[1]s)))",
		p, x, xs, ys)
	return nil
}
