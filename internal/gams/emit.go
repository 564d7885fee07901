// Package gams compiles an analyzed expression graph into a GAMS
// optimization model.
package gams

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/lhaig/sdogams/internal/escape"
	"github.com/lhaig/sdogams/internal/graph"
	"github.com/lhaig/sdogams/internal/lookup"
	"github.com/lhaig/sdogams/internal/objective"
	"github.com/lhaig/sdogams/internal/tableau"
)

// Defaults used when an Options field is left zero.
const (
	DefaultLookupBound = 1e5
	DefaultEpsilon     = 1e-9
)

// Objective statements come after everything they reference.
const objectiveLevel = math.MaxInt

// Options configures a Generator.
type Options struct {
	// Scheme is the discretization used for state equations.
	Scheme tableau.Name
	// Formulation is the initial formulation of every lookup.
	Formulation Formulation
	// LookupBound pads SOS2 breakpoint tables on both ends.
	LookupBound float64
	// Epsilon is the lower bound of guarded divisors.
	Epsilon float64
	// Trace, if set, receives a dump after each completion pass.
	Trace io.Writer
}

// DefaultOptions returns the options of the command-line front end.
func DefaultOptions() Options {
	return Options{
		Scheme:      tableau.RungeKutta2,
		Formulation: Spline,
		LookupBound: DefaultLookupBound,
		Epsilon:     DefaultEpsilon,
	}
}

// Statement is one generated GAMS statement tagged with the level that
// orders it within its class.
type Statement struct {
	Level int
	Text  string
}

type statements []Statement

func (s *statements) add(level int, text string) {
	*s = append(*s, Statement{Level: level, Text: text})
}

// writeSorted writes the statements ordered by level, keeping the order of
// equal levels.
func (s statements) writeSorted(out *strings.Builder) {
	sorted := make(statements, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	for _, st := range sorted {
		out.WriteString(st.Text)
	}
}

// Generator turns an analyzed graph into a GAMS model. The graph is
// completed in place during Emit: synthesized symbols are added to it.
type Generator struct {
	graph     *graph.Graph
	opts      Options
	tableau   *tableau.Tableau
	lookups   *lookupTable
	objective *objective.Objective
}

// New creates a generator for g. Every lookup of g starts with
// opts.Formulation.
func New(g *graph.Graph, opts Options) *Generator {
	if opts.LookupBound == 0 {
		opts.LookupBound = DefaultLookupBound
	}
	if opts.Epsilon == 0 {
		opts.Epsilon = DefaultEpsilon
	}
	return &Generator{
		graph:   g,
		opts:    opts,
		tableau: tableau.New(opts.Scheme),
		lookups: buildLookups(g, opts.Formulation),
	}
}

// Lookups returns the lookups of the model in registration order.
func (gen *Generator) Lookups() []*LookupData {
	return gen.lookups.order
}

// SetFormulation chooses the formulation of a single lookup table.
func (gen *Generator) SetFormulation(t *lookup.Table, f Formulation) error {
	d := gen.lookups.get(t)
	if d == nil {
		return fmt.Errorf("lookup table is not part of the model")
	}
	d.Formulation = f
	return nil
}

// SetObjective sets the objective. A nil or empty objective emits no solve
// statement.
func (gen *Generator) SetObjective(o *objective.Objective) {
	gen.objective = o
}

// AddArbitraryObjective minimizes the final value of the first state in
// the symbol table. Models without states get no objective.
func (gen *Generator) AddArbitraryObjective() {
	obj := objective.New(true)
	for _, b := range gen.graph.Symbols() {
		if b.Node.Op == graph.INTEG {
			obj.Add(objective.Mayer, b.Name, 1)
			break
		}
	}
	gen.objective = obj
}

// Emit writes the GAMS model to w. The model is assembled in memory first,
// so nothing is written when generation fails.
func (gen *Generator) Emit(w io.Writer) error {
	gen.lookups.resetUsages()
	e := newEmitter(gen)

	var out strings.Builder
	if err := e.emit(&out); err != nil {
		return err
	}
	_, err := io.WriteString(w, out.String())
	return err
}

// emitter holds the state of one Emit call.
type emitter struct {
	g       *graph.Graph
	opts    Options
	tab     *tableau.Tableau
	obj     *objective.Objective
	sets    *setRegistry
	lookups *lookupTable

	// sos2 maps an APPLY_LOOKUP node ID to its call-site number.
	sos2      map[int]int
	sos2Sites []*graph.Node

	// guarded holds the IDs of controls used as divisors. Their lower
	// bound is raised to EPSILON when the control is declared.
	guarded map[int]bool

	parameters    statements
	varValues     statements
	equationDecls statements
	equations     statements
}

func newEmitter(gen *Generator) *emitter {
	e := &emitter{
		g:       gen.graph,
		opts:    gen.opts,
		tab:     gen.tableau,
		obj:     gen.objective,
		sets:    newSetRegistry(),
		lookups: gen.lookups,
		sos2:    make(map[int]int),
		guarded: make(map[int]bool),
	}
	e.sets.create("t")
	if !e.tab.SingleStage() {
		e.sets.create("p")
	}
	return e
}

func (e *emitter) emit(out *strings.Builder) error {
	out.WriteString("$offdigit\n")
	e.emitLookupData(out)
	e.emitSets(out)

	e.runPasses()

	e.parameters.add(0, fmt.Sprintf("Parameter EPSILON / %s /;\n", number(e.opts.Epsilon)))
	e.parameters.add(e.g.Time().Level, fmt.Sprintf("Parameter TIME(t);\n\tTIME(t) = %s+(ord(t)-1)*%s;\n",
		escape.Identifier(graph.InitialTimeSymbol), escape.Identifier(graph.TimeStepSymbol)))

	out.WriteString("\n")
	for _, b := range e.g.Symbols() {
		if b.Node.Op == graph.LOOKUP_TABLE {
			continue
		}
		if err := e.emitSymbol(out, b.Name, b.Node); err != nil {
			return fmt.Errorf("symbol '%s': %w", b.Name, err)
		}
	}

	if err := e.emitLookupSites(out); err != nil {
		return err
	}
	if err := e.emitObjective(out); err != nil {
		return err
	}

	if !e.sets.balanced() {
		panic("gams: set nesting not balanced after emission")
	}

	out.WriteString("\n")
	for _, alias := range e.sets.aliases() {
		out.WriteString(alias)
		out.WriteString("\n")
	}

	for _, class := range []statements{e.parameters, e.varValues, e.equationDecls, e.equations} {
		out.WriteString("\n")
		class.writeSorted(out)
	}
	out.WriteString("\n")

	e.emitSolve(out)
	return nil
}

// periods returns the number of time steps in the horizon.
func (e *emitter) periods() int {
	span := (e.g.FinalTime() - e.g.InitialTime()) / e.g.TimeStep()
	return int(math.Floor(span + 1e-9))
}

// emitLookupData writes the spline payload and queues the breakpoint
// parameters of SOS2 lookups.
func (e *emitter) emitLookupData(out *strings.Builder) {
	spline := e.lookups.hasSpline()
	if spline {
		out.WriteString("$onecho > conopt.opt\n" +
			"lkdebg 0\n" +
			"$offecho\n" +
			"$onecho > lookups.dat\n" +
			"max_mixed_err     = 0.01\n" +
			"mixed_err_delta   = 1\n" +
			"min_knot_distance = 1e-6\n" +
			"obj_tolerance     = 1e-7\n")
	}

	line := 0
	for _, d := range e.lookups.order {
		name := d.Ident()
		if d.Formulation == Spline {
			for i, p := range d.Table.Points() {
				if i > 0 {
					out.WriteString(" ")
				}
				out.WriteString(number(p.X) + " " + number(p.Y))
			}
			out.WriteString("\n")
			e.parameters.add(0, fmt.Sprintf("Parameter lkp_%s / %d /;\n", name, line))
			line++
			continue
		}

		xs, ys := d.Table.Xs(), d.Table.Ys()
		var sb strings.Builder
		fmt.Fprintf(&sb, "Parameter lkp_%[1]s_X(lkp_%[1]s_points) /", name)
		fmt.Fprintf(&sb, "\n\t1\t%s", number(-e.opts.LookupBound))
		for i, x := range xs {
			fmt.Fprintf(&sb, "\n\t%d\t%s", i+2, number(x))
		}
		fmt.Fprintf(&sb, "\n\t%d\t%s /;\n", len(xs)+2, number(e.opts.LookupBound))

		fmt.Fprintf(&sb, "Parameter lkp_%[1]s_Y(lkp_%[1]s_points) /", name)
		fmt.Fprintf(&sb, "\n\t1\t%s", number(ys[0]))
		for i, y := range ys {
			fmt.Fprintf(&sb, "\n\t%d\t%s", i+2, number(y))
		}
		fmt.Fprintf(&sb, "\n\t%d\t%s /;\n", len(ys)+2, number(ys[len(ys)-1]))
		e.parameters.add(0, sb.String())
	}

	if spline {
		out.WriteString("$offecho\n" +
			"$funclibin liblookup %GAMS.workdir%liblookup.so\n" +
			"function Lookup / liblookup.Lookup /;\n\n")
	}
}

// emitSets writes the time, stage, control-block and breakpoint sets.
func (e *emitter) emitSets(out *strings.Builder) {
	n := e.periods()
	fmt.Fprintf(out, "Set t time periods / 0*%d /;\n", n)
	out.WriteString("Set tfirst(t) first period;\n")
	out.WriteString("Set tlast(t) last period;\n\n")

	if !e.tab.SingleStage() {
		stages := e.tab.Stages()
		fmt.Fprintf(out, "Set p discretization sampling points / 0*%d /;\n", stages)
		out.WriteString("Table coeff(p, p) discretization coefficients\n")
		for j := 1; j <= stages; j++ {
			fmt.Fprintf(out, "\t%d", j)
		}
		out.WriteString("\n")
		for i := 1; i <= stages; i++ {
			fmt.Fprintf(out, "%d", i)
			for j := 1; j <= stages; j++ {
				out.WriteString("\t" + number(e.tab.Coefficient(i-1, j-1)))
			}
			out.WriteString("\n")
		}
		out.WriteString(";\n")
		out.WriteString("Parameter weight(p) discretization point weights /\n")
		for i := 1; i <= stages; i++ {
			fmt.Fprintf(out, "\t%d\t%s\n", i, number(e.tab.Weight(i-1)))
		}
		out.WriteString("\t/;\n\n")
	}

	out.WriteString("tfirst(t) = yes$(ord(t) eq 1);\n")
	out.WriteString("tlast(t)  = yes$(ord(t) eq card(t));\n")

	for _, size := range e.controlBlockSizes() {
		fmt.Fprintf(out, "Set t%d time periods of %d time steps / 0*%d /;\n", size, size, n/size)
	}

	for _, d := range e.lookups.order {
		if d.Formulation == SOS2 {
			fmt.Fprintf(out, "Set lkp_%s_points / 1*%d /;\n", d.Ident(), d.Table.Len()+2)
		}
	}
}

// controlBlockSizes returns the distinct block sizes above one, ascending.
func (e *emitter) controlBlockSizes() []int {
	seen := make(map[int]bool)
	var sizes []int
	for _, b := range e.g.Symbols() {
		if b.Node.Op == graph.CONTROL && b.Node.ControlSize > 1 && !seen[b.Node.ControlSize] {
			seen[b.Node.ControlSize] = true
			sizes = append(sizes, b.Node.ControlSize)
		}
	}
	sort.Ints(sizes)
	return sizes
}

// emitSymbol writes the declaration of one symbol and queues its
// statements.
func (e *emitter) emitSymbol(out *strings.Builder, name string, n *graph.Node) error {
	ident := escape.Identifier(name)
	comment := quoteComment(e.g.Comment(name))

	switch n.Class {
	case graph.Dynamic:
		if n.Op == graph.CONTROL {
			e.emitControl(out, ident, comment, n)
			return nil
		}
		return e.emitVariable(out, ident, comment, n)

	case graph.Static:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Parameter %s(t)%s;\n\t%s(t) = ", ident, comment, ident)
		if err := e.translate(&sb, n, definition); err != nil {
			return err
		}
		sb.WriteString(";\n")
		e.parameters.add(n.Level, sb.String())
		return nil

	case graph.Constant:
		e.parameters.add(n.Level, fmt.Sprintf("Parameter %s%s / %s /;\n", ident, comment, number(n.Value)))
		return nil

	default:
		return invariant(n, "unknown classification")
	}
}

// quoteComment renders explanatory text, switching to single quotes when
// the text itself contains a double quote.
func quoteComment(c string) string {
	switch {
	case c == "":
		return ""
	case strings.Contains(c, "\""):
		return " '" + c + "'"
	default:
		return " \"" + c + "\""
	}
}

func (e *emitter) emitControl(out *strings.Builder, ident, comment string, n *graph.Node) {
	domain := controlDomain(n.ControlSize)
	fmt.Fprintf(out, "Variable %s%s%s;\n", ident, domain, comment)

	lo := ""
	if n.Child1 != nil {
		lo = number(n.Child1.Value)
	}
	if e.guarded[n.ID] {
		if lo == "" {
			lo = "EPSILON"
		} else {
			lo = fmt.Sprintf("max(%s, EPSILON)", lo)
		}
	}

	bounds := []struct {
		suffix string
		value  string
	}{
		{".lo", lo},
		{".l", bound(n.Child2)},
		{".up", bound(n.Child3)},
	}
	for _, b := range bounds {
		if b.value != "" {
			e.varValues.add(0, fmt.Sprintf("%s%s%s = %s;\n", ident, b.suffix, domain, b.value))
		}
	}
}

func bound(n *graph.Node) string {
	if n == nil {
		return ""
	}
	return number(n.Value)
}

// emitVariable declares a state or algebraic variable with its equations.
func (e *emitter) emitVariable(out *strings.Builder, ident, comment string, n *graph.Node) error {
	sets := e.varSets()
	fmt.Fprintf(out, "Variable %s(%s)%s;\n", ident, sets, comment)
	e.equationDecls.add(n.Level, fmt.Sprintf("Equation eq_%s(%s);\n", ident, sets))

	var sb strings.Builder
	if n.Op != graph.INTEG {
		fmt.Fprintf(&sb, "eq_%s(%s).. %s(%s) =e= ", ident, sets, ident, sets)
		if err := e.translate(&sb, n, definition); err != nil {
			return err
		}
		sb.WriteString(";\n")
		e.equations.add(n.Level, sb.String())
		return nil
	}

	if e.tab.SingleStage() {
		next := e.sets.render(Offset("t", 1))
		fmt.Fprintf(&sb, "eq_%[1]s(%[2]s).. %[1]s(%[2]s) =e= %[1]s(%[3]s) + TIMESTEP*(", ident, next, sets)
		if err := e.translate(&sb, n.Child1, reference); err != nil {
			return err
		}
		sb.WriteString(");\n")
		e.equations.add(n.Level, sb.String())
	} else {
		if err := e.emitStages(&sb, ident, n); err != nil {
			return err
		}
	}

	return e.emitInitial(ident, n)
}

// emitStages writes the aggregate step equation and the per-stage
// equations of a multi-stage scheme.
func (e *emitter) emitStages(sb *strings.Builder, ident string, n *graph.Node) error {
	sets := e.varSets()
	next := e.sets.render(Offset("t", 1), First("p"))
	current := e.sets.render(Index("t"), First("p"))

	e.equationDecls.add(n.Level, fmt.Sprintf("Equation eq_%sIntegStep(%s);\n", ident, sets))

	fmt.Fprintf(sb, "eq_%[1]sIntegStep(%[2]s).. %[1]s(%[2]s) =e= %[1]s(%[3]s)+TIMESTEP*sum(p$( ord(p) > 1 ), weight(p)*(",
		ident, next, current)
	if err := e.translate(sb, n.Child1, reference); err != nil {
		return err
	}
	sb.WriteString("));\n")
	e.equations.add(n.Level, sb.String())
	sb.Reset()

	fmt.Fprintf(sb, "eq_%[1]s(%[2]s)$( ord(p) > 1 ).. %[1]s(%[2]s) =e= %[1]s(%[3]s)+TIMESTEP*", ident, sets, current)
	err := e.within("p", func() error {
		inner := e.sets.render(Index("p"))
		fmt.Fprintf(sb, "sum(%[1]s$( ord(%[1]s) > 1 ), coeff(p, %[1]s)*(", inner)
		return e.translate(sb, n.Child1, reference)
	})
	if err != nil {
		return err
	}
	sb.WriteString("));\n")
	e.equations.add(n.Level, sb.String())
	return nil
}

// emitInitial fixes a constant initial value or adds an initial-condition
// equation when the initial value depends on controls.
func (e *emitter) emitInitial(ident string, n *graph.Node) error {
	var sb strings.Builder
	if n.Init == graph.ConstantInit {
		fmt.Fprintf(&sb, "%s.fx(%s) = ", ident, e.initialSets())
		if err := e.translate(&sb, n.Child2, initialValue); err != nil {
			return err
		}
		sb.WriteString(";\n")
		e.varValues.add(n.Level, sb.String())
		return nil
	}

	e.equationDecls.add(n.Level, fmt.Sprintf("Equation eq_%sInit;\n", ident))
	fmt.Fprintf(&sb, "eq_%sInit.. %s(%s) =e= ", ident, ident, e.initialSets())
	if err := e.translate(&sb, n.Child2, initialValue); err != nil {
		return err
	}
	sb.WriteString(";\n")
	e.equations.add(n.Level, sb.String())
	return nil
}

// emitLookupSites declares the lambda variables of every SOS2 call site
// with their normalization and argument equations.
func (e *emitter) emitLookupSites(out *strings.Builder) error {
	sets := e.varSets()
	for _, n := range e.sos2Sites {
		d := e.lookups.get(n.Child1.Table)
		site := fmt.Sprintf("lkp_%s%d", d.Ident(), e.sos2[n.ID])
		points := fmt.Sprintf("lkp_%s_points", d.Ident())
		lambda := fmt.Sprintf("%s_lambda(%s, %s)", site, sets, points)

		fmt.Fprintf(out, "sos2 Variable %s;\n", lambda)
		e.equationDecls.add(n.Level, fmt.Sprintf("Equation eq_%[1]s_norm(%[2]s);\nEquation eq_%[1]s_arg(%[2]s);\n", site, sets))

		var sb strings.Builder
		fmt.Fprintf(&sb, "eq_%s_norm(%s).. sum(%s, %s) =e= 1;\n", site, sets, points, lambda)
		fmt.Fprintf(&sb, "eq_%s_arg(%s).. ", site, sets)
		if err := e.translate(&sb, n.Child2, reference); err != nil {
			return fmt.Errorf("lookup call site %s: %w", site, err)
		}
		fmt.Fprintf(&sb, " =e= sum(%s, %s*lkp_%s_X(%s) );\n", points, lambda, d.Ident(), points)
		e.equations.add(n.Level, sb.String())
	}
	return nil
}

// emitObjective declares the objective variable and its defining equation.
func (e *emitter) emitObjective(out *strings.Builder) error {
	if e.obj.Empty() {
		return nil
	}

	out.WriteString("Variable objective;\n")
	e.equationDecls.add(objectiveLevel, "Equation eq_objective;\n")

	var sb strings.Builder
	sb.WriteString("eq_objective.. objective =e= ")
	staged := !e.tab.SingleStage()
	for i, s := range e.obj.Summands {
		if i > 0 {
			sb.WriteString("+")
		}
		switch {
		case s.Kind == objective.Mayer && staged:
			sb.WriteString("sum( (t, p)$(ord(p) eq 1 and ord(t) eq card(t)), ")
		case s.Kind == objective.Mayer:
			sb.WriteString("sum( t$(ord(t) eq card(t)), ")
		case staged:
			// Stage points other than the first would count a period twice.
			sb.WriteString("sum( (t, p)$(ord(p) eq 1), ")
		default:
			sb.WriteString("sum( t, ")
		}
		if s.Weight != 1 {
			sb.WriteString(number(s.Weight) + "*")
		}
		if err := e.translateSymbol(&sb, s.Symbol, false); err != nil {
			return fmt.Errorf("objective: %w", err)
		}
		sb.WriteString(")")
	}
	sb.WriteString(";\n")
	e.equations.add(objectiveLevel, sb.String())
	return nil
}

func (e *emitter) emitSolve(out *strings.Builder) {
	if e.obj.Empty() {
		return
	}
	out.WriteString("Model m / all /;\n")
	if e.lookups.hasSpline() {
		out.WriteString("m.optfile = 1;\n")
	}
	sense := "max"
	if e.obj.Minimize {
		sense = "min"
	}
	solver := "nlp"
	if e.lookups.hasSOS2() {
		solver = "minlp"
	}
	fmt.Fprintf(out, "Solve m %s objective using %s;\n", sense, solver)
}
