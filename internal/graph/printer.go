package graph

import (
	"strconv"
	"strings"
)

var infixOps = map[Op]string{
	PLUS:   "+",
	MINUS:  "-",
	MULT:   "*",
	DIV:    "/",
	G:      ">",
	GE:     ">=",
	L:      "<",
	LE:     "<=",
	EQ:     "=",
	NEQ:    "<>",
	AND:    "and",
	OR:     "or",
	POWER:  "^",
	MODULO: "mod",
}

// Print renders the definition of a node as readable infix text. Named
// children are shown by their symbol rather than expanded.
func Print(g *Graph, n *Node) string {
	var sb strings.Builder
	p := &printer{sb: &sb, g: g, active: make(map[int]bool)}
	p.node(n, true)
	return sb.String()
}

type printer struct {
	sb     *strings.Builder
	g      *Graph
	active map[int]bool
}

// PrintSymbols returns one "name = definition" line per symbol.
func PrintSymbols(g *Graph) string {
	var sb strings.Builder
	for _, b := range g.Symbols() {
		sb.WriteString(b.Name)
		sb.WriteString(" [")
		sb.WriteString(b.Node.Class.String())
		sb.WriteString(", level ")
		sb.WriteString(strconv.Itoa(b.Node.Level))
		sb.WriteString("] = ")
		sb.WriteString(Print(g, b.Node))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (p *printer) node(n *Node, root bool) {
	sb := p.sb
	if n == nil {
		sb.WriteString("?")
		return
	}

	if !root {
		if name, ok := p.g.SymbolOf(n); ok {
			sb.WriteString(name)
			return
		}
	}

	// Unnamed integrators can reach themselves through their derivative.
	if p.active[n.ID] {
		sb.WriteString("...")
		return
	}
	p.active[n.ID] = true
	defer delete(p.active, n.ID)

	switch n.Op {
	case CONSTANT:
		sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case TIME:
		sb.WriteString("Time")
	case NIL:
		sb.WriteString("nil")
	case LOOKUP_TABLE:
		sb.WriteString("lookup(")
		for i, pt := range n.Table.Points() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			sb.WriteString(strconv.FormatFloat(pt.X, 'g', -1, 64))
			sb.WriteString(",")
			sb.WriteString(strconv.FormatFloat(pt.Y, 'g', -1, 64))
			sb.WriteString(")")
		}
		sb.WriteString(")")
	case CONTROL:
		sb.WriteString("CONTROL(")
		sb.WriteString(strconv.Itoa(n.ControlSize))
		sb.WriteString(")")
	case UMINUS:
		sb.WriteString("-(")
		p.node(n.Child1, false)
		sb.WriteString(")")
	case APPLY_LOOKUP:
		p.node(n.Child1, false)
		sb.WriteString("(")
		p.node(n.Child2, false)
		sb.WriteString(")")
	default:
		if op, ok := infixOps[n.Op]; ok {
			sb.WriteString("(")
			p.node(n.Child1, false)
			sb.WriteString(" " + op + " ")
			p.node(n.Child2, false)
			sb.WriteString(")")
			return
		}
		if n.Op == PULSE_TRAIN {
			sb.WriteString("PULSE_TRAIN(")
			p.node(n.Child1.Child1, false)
			sb.WriteString(", ")
			p.node(n.Child1.Child2, false)
			sb.WriteString(", ")
			p.node(n.Child2, false)
			sb.WriteString(", ")
			p.node(n.Child3, false)
			sb.WriteString(")")
			return
		}
		sb.WriteString(strings.ToUpper(n.Op.String()))
		sb.WriteString("(")
		for i, c := range n.Children() {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.node(c, false)
		}
		sb.WriteString(")")
	}
}
