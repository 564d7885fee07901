package graph

import (
	"fmt"
	"math"
)

const (
	unvisited = iota
	inProgress
	done
)

type analyzer struct {
	g         *Graph
	state     []int
	t0, dt    float64
	timeLevel int
}

// Analyze computes classification, level and initial value for every node.
// Integrators break feedback loops: their derivative does not contribute to
// their own level or initial value. Any other cycle is an algebraic loop
// and is reported as an error.
//
// The TIME leaf is always allocated so that its level is known even when
// no equation refers to it.
func Analyze(g *Graph) error {
	g.Time()
	a := &analyzer{g: g, state: make([]int, g.Len()), timeLevel: 1}

	for _, name := range []string{InitialTimeSymbol, TimeStepSymbol, FinalTimeSymbol} {
		n := g.Node(name)
		if n == nil {
			continue
		}
		if err := a.visit(n); err != nil {
			return err
		}
		if n.Level+1 > a.timeLevel {
			a.timeLevel = n.Level + 1
		}
	}
	a.t0 = g.InitialTime()
	a.dt = g.TimeStep()

	for _, n := range g.nodes {
		if err := a.visit(n); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) visit(n *Node) error {
	if n == nil {
		return nil
	}
	switch a.state[n.ID] {
	case done:
		return nil
	case inProgress:
		name, ok := a.g.SymbolOf(n)
		if !ok {
			name = fmt.Sprintf("node %d", n.ID)
		}
		return fmt.Errorf("algebraic loop through %s (%s)", name, n.Op)
	}
	a.state[n.ID] = inProgress

	if err := checkShape(n); err != nil {
		return err
	}

	switch n.Op {
	case CONSTANT, NIL, LOOKUP_TABLE:
		n.Class = Constant
		n.Level = 0

	case TIME:
		n.Class = Static
		n.Level = a.timeLevel
		n.Value = a.t0

	case CONTROL:
		if err := a.visitAll(n.Child1, n.Child2, n.Child3); err != nil {
			return err
		}
		n.Class = Dynamic
		n.Level = 0
		switch {
		case n.Child2 != nil:
			n.Value = n.Child2.Value
		case n.Child1 != nil:
			n.Value = n.Child1.Value
		default:
			n.Value = 0
		}

	case INTEG:
		if err := a.visit(n.Child2); err != nil {
			return err
		}
		n.Class = Dynamic
		n.Level = n.Child2.Level + 1
		n.Value = n.Child2.Value
		n.Init = ControlInit
		if n.Child2.Class == Constant {
			n.Init = ConstantInit
		}
		// The derivative may refer back to this integrator.
		a.state[n.ID] = done
		return a.visit(n.Child1)

	case INITIAL:
		if err := a.visit(n.Child1); err != nil {
			return err
		}
		n.Class = Constant
		n.Level = n.Child1.Level + 1
		n.Value = n.Child1.Value

	case ACTIVE_INITIAL:
		if err := a.visitAll(n.Child1, n.Child2); err != nil {
			return err
		}
		n.Class = n.Child1.Class
		n.Level = maxLevel(n.Child1, n.Child2) + 1
		n.Value = n.Child2.Value

	default:
		if err := a.visitAll(n.Child1, n.Child2, n.Child3); err != nil {
			return err
		}
		n.Class = maxClass(n.Children()...)
		if timeDependent(n.Op) && n.Class < Static {
			n.Class = Static
		}
		n.Level = maxLevel(n.Children()...) + 1
		n.Value = a.eval(n)
	}

	a.state[n.ID] = done
	return nil
}

func (a *analyzer) visitAll(nodes ...*Node) error {
	for _, c := range nodes {
		if err := a.visit(c); err != nil {
			return err
		}
	}
	return nil
}

func timeDependent(op Op) bool {
	switch op {
	case PULSE, PULSE_TRAIN, STEP, RAMP, DELAY_FIXED, RANDOM_UNIFORM:
		return true
	}
	return false
}

func maxClass(nodes ...*Node) Class {
	c := Constant
	for _, n := range nodes {
		if n != nil && n.Class > c {
			c = n.Class
		}
	}
	return c
}

func maxLevel(nodes ...*Node) int {
	l := 0
	for _, n := range nodes {
		if n != nil && n.Level > l {
			l = n.Level
		}
	}
	return l
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// eval computes the initial value of an operator node from the initial
// values of its children.
func (a *analyzer) eval(n *Node) float64 {
	var x, y, z float64
	if n.Child1 != nil {
		x = n.Child1.Value
	}
	if n.Child2 != nil {
		y = n.Child2.Value
	}
	if n.Child3 != nil {
		z = n.Child3.Value
	}
	now := a.t0 + a.dt/2

	switch n.Op {
	case IF:
		if x != 0 {
			return y
		}
		return z
	case DELAY_FIXED:
		return z
	case PULSE:
		return boolValue(now > x && now < x+y)
	case PULSE_TRAIN:
		start, width := n.Child1.Child1.Value, n.Child1.Child2.Value
		phase := math.Mod(a.t0, y) + a.dt/2
		return boolValue(phase > start && phase < start+width && now < z)
	case STEP:
		return x * boolValue(now > y)
	case RAMP:
		if a.t0 > y {
			return x * (math.Min(a.t0, z) - y)
		}
		return 0
	case APPLY_LOOKUP:
		if n.Child1 != nil && n.Child1.Table != nil {
			return n.Child1.Table.Eval(y)
		}
		return 0
	case RANDOM_UNIFORM:
		return (x + y) / 2
	case PLUS:
		return x + y
	case MINUS:
		return x - y
	case MULT:
		return x * y
	case DIV:
		return x / y
	case G:
		return boolValue(x > y)
	case GE:
		return boolValue(x >= y)
	case L:
		return boolValue(x < y)
	case LE:
		return boolValue(x <= y)
	case EQ:
		return boolValue(x == y)
	case NEQ:
		return boolValue(x != y)
	case AND:
		return boolValue(x != 0 && y != 0)
	case OR:
		return boolValue(x != 0 || y != 0)
	case POWER:
		return math.Pow(x, y)
	case LOG:
		return math.Log(x) / math.Log(y)
	case MIN:
		return math.Min(x, y)
	case MAX:
		return math.Max(x, y)
	case MODULO:
		return math.Mod(x, y)
	case UMINUS:
		return -x
	case SQRT:
		return math.Sqrt(x)
	case EXP:
		return math.Exp(x)
	case LN:
		return math.Log(x)
	case ABS:
		return math.Abs(x)
	case INTEGER:
		return math.Floor(x)
	case NOT:
		return boolValue(x == 0)
	case SIN:
		return math.Sin(x)
	case COS:
		return math.Cos(x)
	case TAN:
		return math.Tan(x)
	case ARCSIN:
		return math.Asin(x)
	case ARCCOS:
		return math.Acos(x)
	case ARCTAN:
		return math.Atan(x)
	case SINH:
		return math.Sinh(x)
	case COSH:
		return math.Cosh(x)
	case TANH:
		return math.Tanh(x)
	}
	return 0
}
