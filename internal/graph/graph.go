package graph

import (
	"fmt"
	"sort"

	"github.com/lhaig/sdogams/internal/lookup"
)

// Names of the symbols that carry the simulation horizon.
const (
	InitialTimeSymbol = "INITIAL TIME"
	FinalTimeSymbol   = "FINAL TIME"
	TimeStepSymbol    = "TIME STEP"
)

// Binding associates a symbol with the node it names.
type Binding struct {
	Name string
	Node *Node
}

// Graph is an arena of expression nodes plus the model's symbol table.
// Symbol iteration follows insertion order.
type Graph struct {
	nodes    []*Node
	time     *Node
	bindings []Binding
	byName   map[string]*Node
	byNode   map[int][]string
	comments map[string]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byName:   make(map[string]*Node),
		byNode:   make(map[int][]string),
		comments: make(map[string]string),
	}
}

// NewNode allocates a node with the given operator and children.
func (g *Graph) NewNode(op Op, children ...*Node) *Node {
	if len(children) > 3 {
		panic(fmt.Sprintf("graph: %s node with %d children", op, len(children)))
	}
	n := &Node{ID: len(g.nodes), Op: op}
	for i, c := range children {
		switch i {
		case 0:
			n.Child1 = c
		case 1:
			n.Child2 = c
		case 2:
			n.Child3 = c
		}
	}
	g.nodes = append(g.nodes, n)
	return n
}

// Constant allocates a constant leaf.
func (g *Graph) Constant(v float64) *Node {
	n := g.NewNode(CONSTANT)
	n.Value = v
	n.Class = Constant
	return n
}

// Time returns the graph's single TIME leaf.
func (g *Graph) Time() *Node {
	if g.time == nil {
		g.time = g.NewNode(TIME)
	}
	return g.time
}

// Control allocates a control with optional lower, start and upper bounds.
func (g *Graph) Control(size int, lo, start, up *Node) *Node {
	n := g.NewNode(CONTROL, lo, start, up)
	n.ControlSize = size
	return n
}

// LookupTable allocates a lookup-table leaf.
func (g *Graph) LookupTable(t *lookup.Table) *Node {
	n := g.NewNode(LOOKUP_TABLE)
	n.Table = t
	return n
}

// Len returns the number of nodes in the arena. IDs are in [0, Len()).
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in allocation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Bind names a node. A name can be bound only once.
func (g *Graph) Bind(name string, n *Node) error {
	if n == nil {
		return fmt.Errorf("symbol '%s' bound to nil node", name)
	}
	if _, exists := g.byName[name]; exists {
		return fmt.Errorf("symbol '%s' already defined", name)
	}
	g.byName[name] = n
	g.bindings = append(g.bindings, Binding{Name: name, Node: n})

	names := append(g.byNode[n.ID], name)
	sort.Strings(names)
	g.byNode[n.ID] = names
	return nil
}

// Symbols returns the symbol table in insertion order.
func (g *Graph) Symbols() []Binding {
	return g.bindings
}

// Node returns the node bound to name, or nil.
func (g *Graph) Node(name string) *Node {
	return g.byName[name]
}

// SymbolOf returns the symbol of a node. When several symbols name the same
// node the lexicographically smallest one is used.
func (g *Graph) SymbolOf(n *Node) (string, bool) {
	names := g.byNode[n.ID]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// SymbolsOf returns every symbol bound to the node, sorted.
func (g *Graph) SymbolsOf(n *Node) []string {
	return g.byNode[n.ID]
}

// HasSymbol reports whether the node is named.
func (g *Graph) HasSymbol(n *Node) bool {
	return len(g.byNode[n.ID]) > 0
}

// SetComment attaches a description to a symbol.
func (g *Graph) SetComment(name, comment string) {
	g.comments[name] = comment
}

// Comment returns the description of a symbol, if any.
func (g *Graph) Comment(name string) string {
	return g.comments[name]
}

// InitialTime returns the value of the INITIAL TIME symbol.
func (g *Graph) InitialTime() float64 {
	return g.symbolValue(InitialTimeSymbol)
}

// FinalTime returns the value of the FINAL TIME symbol.
func (g *Graph) FinalTime() float64 {
	return g.symbolValue(FinalTimeSymbol)
}

// TimeStep returns the value of the TIME STEP symbol.
func (g *Graph) TimeStep() float64 {
	return g.symbolValue(TimeStepSymbol)
}

func (g *Graph) symbolValue(name string) float64 {
	if n := g.byName[name]; n != nil {
		return n.Value
	}
	return 0
}
