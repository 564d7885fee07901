package linter

import (
	"regexp"
	"strings"

	"github.com/lhaig/sdogams/internal/diagnostic"
	"github.com/lhaig/sdogams/internal/escape"
	"github.com/lhaig/sdogams/internal/graph"
)

// reserved lists identifiers the generated model declares itself. GAMS
// identifiers are case-insensitive, so they are compared in lower case.
var reserved = map[string]bool{
	"time":      true,
	"epsilon":   true,
	"objective": true,
	"tfirst":    true,
	"tlast":     true,
	"coeff":     true,
	"weight":    true,
	"m":         true,
	"lookup":    true,
}

// generatedName matches the set aliases (tt, ttt, pp, ...) and control
// block sets (t2, t5, ...) the generated model may declare.
var generatedName = regexp.MustCompile(`^(t+|p+|t[0-9]+)$`)

// generatedPrefixes start the equations and lookup declarations of the
// generated model.
var generatedPrefixes = []string{"eq_", "lkp_"}

// Linter performs model checks on an analyzed graph before generation.
type Linter struct {
	g    *graph.Graph
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given graph and returns diagnostics.
func Lint(g *graph.Graph) *diagnostic.Diagnostics {
	l := &Linter{
		g:    g,
		diag: diagnostic.New(),
	}

	l.lintSymbols()
	l.lintReachable()
	l.lintLookups()

	return l.diag
}

// lintSymbols checks the symbol table.
func (l *Linter) lintSymbols() {
	owners := make(map[string]string)
	for _, b := range l.g.Symbols() {
		ident := escape.Identifier(b.Name)
		l.checkIdentifier(b.Name, ident, owners)

		if names := l.g.SymbolsOf(b.Node); len(names) > 1 && names[0] == b.Name {
			l.diag.Warningf(b.Name, "node is bound to %d symbols (%s); '%s' is used in the model",
				len(names), strings.Join(names, ", "), b.Name)
		}

		if b.Node.Op == graph.CONTROL {
			l.checkControlBounds(b.Name, b.Node)
		}

		l.checkComment(b.Name, l.g.Comment(b.Name))
	}
}

// lintReachable checks every node reachable from a symbol, attributing
// findings to the first symbol that reaches them.
func (l *Linter) lintReachable() {
	visited := make([]bool, l.g.Len())
	for _, b := range l.g.Symbols() {
		stack := []*graph.Node{b.Node}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true

			switch n.Op {
			case graph.RANDOM_UNIFORM:
				l.diag.ErrorWithHint(b.Name,
					"stochastic operator random_uniform cannot be expressed in GAMS",
					"replace it with a deterministic input or a control")
			case graph.DELAY_FIXED:
				l.checkDelay(b.Name, n)
			}

			stack = append(stack, n.Children()...)
		}
	}
}

// lintLookups checks that every lookup table is applied somewhere.
func (l *Linter) lintLookups() {
	applied := make(map[int]bool)
	for _, n := range l.g.Nodes() {
		if n.Op == graph.APPLY_LOOKUP && n.Child1 != nil {
			applied[n.Child1.ID] = true
		}
	}
	for _, b := range l.g.Symbols() {
		if b.Node.Op == graph.LOOKUP_TABLE && !applied[b.Node.ID] {
			l.diag.Warningf(b.Name, "lookup table is never applied")
		}
	}
}

// --- Lint rules ---

// checkIdentifier reports symbols whose GAMS identifiers are empty, clash
// with another symbol or with a generated declaration.
func (l *Linter) checkIdentifier(name, ident string, owners map[string]string) {
	if ident == "" {
		l.diag.Errorf(name, "symbol has no usable characters for a GAMS identifier")
		return
	}
	key := strings.ToLower(ident)
	if other, ok := owners[key]; ok {
		l.diag.ErrorWithHint(name,
			"GAMS identifier '"+ident+"' is already used by symbol '"+other+"'",
			"rename one of the symbols")
		return
	}
	owners[key] = name

	if reserved[key] || generatedName.MatchString(key) {
		l.diag.Errorf(name, "GAMS identifier '%s' clashes with a generated declaration", ident)
	}
	for _, prefix := range generatedPrefixes {
		if strings.HasPrefix(key, prefix) {
			l.diag.ErrorWithHint(name,
				"GAMS identifier '"+ident+"' uses the prefix '"+prefix+"' of generated declarations",
				"rename the symbol")
		}
	}
	if len(name) > escape.MaxLength {
		l.diag.Infof(name, "identifier shortened to '%s'", ident)
	}
}

// checkComment reports comments that cannot be quoted as GAMS explanatory
// text.
func (l *Linter) checkComment(name, comment string) {
	switch {
	case strings.ContainsAny(comment, "\r\n"):
		l.diag.Errorf(name, "comment spans several lines")
	case strings.Contains(comment, "\"") && strings.Contains(comment, "'"):
		l.diag.ErrorWithHint(name, "comment contains both quote characters",
			"remove either the single or the double quotes")
	}
}

// checkControlBounds notes controls left without a lower or upper bound.
func (l *Linter) checkControlBounds(name string, n *graph.Node) {
	var missing []string
	if n.Child1 == nil {
		missing = append(missing, "lower")
	}
	if n.Child3 == nil {
		missing = append(missing, "upper")
	}
	if len(missing) > 0 {
		l.diag.Infof(name, "control has no %s bound", strings.Join(missing, " or "))
	}
}

// checkDelay warns about fixed delays the generated model cannot reproduce
// exactly.
func (l *Linter) checkDelay(name string, n *graph.Node) {
	if n.Child2 == nil {
		return
	}
	if n.Child2.Class != graph.Constant {
		l.diag.WarningWithHint(name,
			"delay time is not constant; its initial value is used",
			"make the delay time a constant")
		return
	}
	step := l.g.TimeStep()
	if step > 0 && n.Child2.Value > step {
		l.diag.Warningf(name, "delay time %g is longer than TIME STEP %g and is emitted as a one-period delay",
			n.Child2.Value, step)
	}
}
