package gams

import (
	"fmt"
	"strconv"

	"github.com/lhaig/sdogams/internal/escape"
	"github.com/lhaig/sdogams/internal/graph"
)

// pass is one graph-completion step. It mutates the graph or the emitter
// and returns a description of what it added, used for tracing.
type pass struct {
	name string
	run  func(e *emitter) []string
}

// Guards run first because they may name divisors the later passes must see.
var completionPasses = []pass{
	{name: "division-guards", run: (*emitter).createDivisionGuards},
	{name: "state-symbols", run: (*emitter).createStateSymbols},
	{name: "sos2-indexing", run: (*emitter).indexSOS2Lookups},
}

func (e *emitter) runPasses() {
	for _, p := range completionPasses {
		notes := p.run(e)
		if e.opts.Trace == nil {
			continue
		}
		fmt.Fprintf(e.opts.Trace, "--- after %s ---\n", p.name)
		for _, note := range notes {
			fmt.Fprintln(e.opts.Trace, note)
		}
		fmt.Fprintln(e.opts.Trace)
	}
}

// valueChildren returns the children that carry part of a node's value, in
// visiting order. Structural leaves have none.
func valueChildren(n *graph.Node) []*graph.Node {
	switch n.Op {
	case graph.IF, graph.DELAY_FIXED, graph.PULSE_TRAIN, graph.RAMP:
		return []*graph.Node{n.Child1, n.Child2, n.Child3}

	case graph.INTEG, graph.APPLY_LOOKUP, graph.PULSE, graph.ACTIVE_INITIAL,
		graph.STEP, graph.RANDOM_UNIFORM,
		graph.PLUS, graph.MINUS, graph.MULT, graph.DIV,
		graph.G, graph.GE, graph.L, graph.LE, graph.EQ, graph.NEQ,
		graph.AND, graph.OR, graph.POWER, graph.LOG,
		graph.MIN, graph.MAX, graph.MODULO:
		return []*graph.Node{n.Child1, n.Child2}

	case graph.INITIAL, graph.UMINUS, graph.SQRT, graph.EXP, graph.LN,
		graph.ABS, graph.INTEGER, graph.NOT,
		graph.SIN, graph.COS, graph.TAN, graph.ARCSIN, graph.ARCCOS, graph.ARCTAN,
		graph.SINH, graph.COSH, graph.TANH:
		return []*graph.Node{n.Child1}

	default:
		// TIME, CONSTANT, CONTROL, LOOKUP_TABLE, NIL
		return nil
	}
}

// pushChildren pushes children so that the first one is popped first.
func pushChildren(stack []*graph.Node, children []*graph.Node) []*graph.Node {
	for i := len(children) - 1; i >= 0; i-- {
		if children[i] != nil {
			stack = append(stack, children[i])
		}
	}
	return stack
}

// roots snapshots the symbol table so that bindings added by a pass are
// not walked again.
func (e *emitter) roots() []graph.Binding {
	syms := e.g.Symbols()
	out := make([]graph.Binding, len(syms))
	copy(out, syms)
	return out
}

// freshName returns the first name prefix<k>, k >= *counter, that no
// symbol uses yet, and advances the counter past it.
func (e *emitter) freshName(prefix string, counter *int, taken map[string]bool) string {
	for {
		name := prefix + strconv.Itoa(*counter)
		*counter++
		if e.g.Node(name) == nil && !taken[name] {
			return name
		}
	}
}

// createDivisionGuards names every dynamic divisor and bounds it away from
// zero.
func (e *emitter) createDivisionGuards() []string {
	var notes []string
	visited := make([]bool, e.g.Len())
	guarded := make(map[int]bool)
	divisors := 0

	for _, root := range e.roots() {
		stack := []*graph.Node{root.Node}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if visited[n.ID] || n.Class != graph.Dynamic {
				continue
			}
			visited[n.ID] = true

			if n.Op == graph.DIV && n.Child2.Class == graph.Dynamic && !guarded[n.Child2.ID] {
				guarded[n.Child2.ID] = true
				name, ok := e.g.SymbolOf(n.Child2)
				if !ok {
					name = e.freshName("Divisor", &divisors, nil)
					// The name is fresh, so binding cannot fail.
					_ = e.g.Bind(name, n.Child2)
					notes = append(notes, fmt.Sprintf("new symbol %s = %s", name, graph.Print(e.g, n.Child2)))
				}
				if n.Child2.Op == graph.CONTROL {
					e.guarded[n.Child2.ID] = true
				} else {
					e.varValues.add(0, fmt.Sprintf("%s.lo%s = EPSILON;\n", escape.Identifier(name), e.domain(n.Child2)))
				}
				notes = append(notes, fmt.Sprintf("guard %s", name))
			}

			stack = pushChildren(stack, valueChildren(n))
		}
	}
	return notes
}

// createStateSymbols names every integrator hidden inside another
// expression as <root>_LV<n>. An integrator is numbered after the hidden
// integrators of its own subtree.
func (e *emitter) createStateSymbols() []string {
	type frame struct {
		n    *graph.Node
		post bool
	}

	var created []graph.Binding
	taken := make(map[string]bool)
	visited := make([]bool, e.g.Len())

	for _, root := range e.roots() {
		counter := 1
		stack := []frame{{n: root.Node}}
		start := true
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := f.n

			if f.post {
				name := e.freshName(root.Name+"_LV", &counter, taken)
				taken[name] = true
				created = append(created, graph.Binding{Name: name, Node: n})
				continue
			}

			// Named subtrees are handled from their own root.
			if !start && e.g.HasSymbol(n) {
				continue
			}
			start = false
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true

			if n.Op == graph.INTEG && !e.g.HasSymbol(n) {
				stack = append(stack, frame{n: n, post: true})
			}
			children := valueChildren(n)
			for i := len(children) - 1; i >= 0; i-- {
				if children[i] != nil {
					stack = append(stack, frame{n: children[i]})
				}
			}
		}
	}

	notes := make([]string, 0, len(created))
	for _, b := range created {
		_ = e.g.Bind(b.Name, b.Node)
		notes = append(notes, fmt.Sprintf("new state %s = %s", b.Name, graph.Print(e.g, b.Node)))
	}
	return notes
}

// indexSOS2Lookups numbers the dynamic call sites of every SOS2 lookup.
// A shared call site keeps a single number.
func (e *emitter) indexSOS2Lookups() []string {
	var notes []string
	visited := make([]bool, e.g.Len())

	for _, root := range e.roots() {
		stack := []*graph.Node{root.Node}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if visited[n.ID] || n.Class != graph.Dynamic {
				continue
			}
			visited[n.ID] = true

			if n.Op == graph.APPLY_LOOKUP {
				d := e.lookups.get(n.Child1.Table)
				if d != nil && d.Formulation == SOS2 {
					if _, ok := e.sos2[n.ID]; !ok {
						d.Usages++
						e.sos2[n.ID] = d.Usages
						e.sos2Sites = append(e.sos2Sites, n)
						notes = append(notes, fmt.Sprintf("call site %s%d = %s", d.Ident(), d.Usages, graph.Print(e.g, n)))
					}
				}
				stack = pushChildren(stack, []*graph.Node{n.Child2})
				continue
			}

			stack = pushChildren(stack, valueChildren(n))
		}
	}
	return notes
}
