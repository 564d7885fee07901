// Package model reads the YAML interchange format describing an expression
// graph, its lookup tables, its symbols and an optional objective.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lhaig/sdogams/internal/graph"
	"github.com/lhaig/sdogams/internal/lookup"
	"github.com/lhaig/sdogams/internal/objective"
)

// Document is the on-disk layout of a model file.
type Document struct {
	Scheme     string        `yaml:"scheme,omitempty"`
	LookupType string        `yaml:"lookup_type,omitempty"`
	Lookups    []LookupDoc   `yaml:"lookups,omitempty"`
	Nodes      []NodeDoc     `yaml:"nodes"`
	Symbols    []SymbolDoc   `yaml:"symbols"`
	Objective  *ObjectiveDoc `yaml:"objective,omitempty"`
}

// LookupDoc is a named table of (x, y) samples.
type LookupDoc struct {
	Name   string       `yaml:"name"`
	Points [][2]float64 `yaml:"points"`
}

// NodeDoc is one graph node. Args refer to other nodes by ID; control
// bounds may be left empty with ~.
type NodeDoc struct {
	ID          int      `yaml:"id"`
	Op          string   `yaml:"op"`
	Args        []*int   `yaml:"args,omitempty"`
	Value       float64  `yaml:"value,omitempty"`
	Table       string   `yaml:"table,omitempty"`
	ControlSize int      `yaml:"control_size,omitempty"`
	Usages      []string `yaml:"usages,omitempty"`
}

// SymbolDoc binds a name to a node.
type SymbolDoc struct {
	Name    string `yaml:"name"`
	Node    int    `yaml:"node"`
	Comment string `yaml:"comment,omitempty"`
}

// ObjectiveDoc is the optimization goal.
type ObjectiveDoc struct {
	Sense    string       `yaml:"sense,omitempty"`
	Summands []SummandDoc `yaml:"summands"`
}

// SummandDoc is one term of the objective. Weight defaults to 1.
type SummandDoc struct {
	Symbol string   `yaml:"symbol"`
	Kind   string   `yaml:"kind,omitempty"`
	Weight *float64 `yaml:"weight,omitempty"`
}

// Model is a loaded and analyzed model.
type Model struct {
	Graph *graph.Graph
	// Scheme and LookupType are the defaults recorded in the file, possibly
	// empty.
	Scheme     string
	LookupType string
	// Objective is nil when the file has none.
	Objective *objective.Objective
}

// Parse decodes a model file. Unknown fields are rejected.
func Parse(data []byte) (*Model, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty model file")
		}
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	return Build(&doc)
}

// Build turns a decoded document into an analyzed graph.
func Build(doc *Document) (*Model, error) {
	b := &builder{
		g:      graph.New(),
		tables: make(map[string]*lookup.Table),
		nodes:  make(map[int]*graph.Node),
	}
	if err := b.lookups(doc.Lookups); err != nil {
		return nil, err
	}
	if err := b.allocate(doc.Nodes); err != nil {
		return nil, err
	}
	if err := b.wire(doc.Nodes); err != nil {
		return nil, err
	}
	if err := b.symbols(doc.Symbols); err != nil {
		return nil, err
	}

	m := &Model{Graph: b.g, Scheme: doc.Scheme, LookupType: doc.LookupType}
	if doc.Objective != nil {
		obj, err := b.objective(doc.Objective)
		if err != nil {
			return nil, err
		}
		m.Objective = obj
	}

	if err := graph.Analyze(b.g); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return m, nil
}

type builder struct {
	g      *graph.Graph
	tables map[string]*lookup.Table
	nodes  map[int]*graph.Node
}

func (b *builder) lookups(docs []LookupDoc) error {
	for _, l := range docs {
		if l.Name == "" {
			return fmt.Errorf("lookup without a name")
		}
		if _, dup := b.tables[l.Name]; dup {
			return fmt.Errorf("lookup '%s' defined twice", l.Name)
		}
		points := make([]lookup.Point, len(l.Points))
		for i, p := range l.Points {
			points[i] = lookup.Point{X: p[0], Y: p[1]}
		}
		t, err := lookup.New(points)
		if err != nil {
			return fmt.Errorf("lookup '%s': %w", l.Name, err)
		}
		b.tables[l.Name] = t
	}
	return nil
}

// allocate creates every node before any child is wired, so arguments may
// refer forward. Integrator feedback loops need that.
func (b *builder) allocate(docs []NodeDoc) error {
	for _, nd := range docs {
		if _, dup := b.nodes[nd.ID]; dup {
			return fmt.Errorf("node %d defined twice", nd.ID)
		}
		op, err := graph.ParseOp(nd.Op)
		if err != nil {
			return fmt.Errorf("node %d: %w", nd.ID, err)
		}

		var n *graph.Node
		switch op {
		case graph.CONSTANT:
			n = b.g.Constant(nd.Value)
		case graph.TIME:
			n = b.g.Time()
		case graph.CONTROL:
			n = b.g.Control(nd.ControlSize, nil, nil, nil)
		case graph.LOOKUP_TABLE:
			t, ok := b.tables[nd.Table]
			if !ok {
				return fmt.Errorf("node %d: unknown lookup '%s'", nd.ID, nd.Table)
			}
			n = b.g.LookupTable(t)
		default:
			n = b.g.NewNode(op)
		}
		n.Usages = append(n.Usages, nd.Usages...)
		b.nodes[nd.ID] = n
	}
	return nil
}

func (b *builder) wire(docs []NodeDoc) error {
	for _, nd := range docs {
		n := b.nodes[nd.ID]
		if len(nd.Args) > 3 {
			return fmt.Errorf("node %d (%s): %d arguments, at most 3 allowed", nd.ID, n.Op, len(nd.Args))
		}
		children := make([]*graph.Node, 3)
		for i, arg := range nd.Args {
			if arg == nil {
				if n.Op != graph.CONTROL {
					return fmt.Errorf("node %d (%s): argument %d is empty", nd.ID, n.Op, i+1)
				}
				continue
			}
			c, ok := b.nodes[*arg]
			if !ok {
				return fmt.Errorf("node %d (%s): argument %d refers to unknown node %d", nd.ID, n.Op, i+1, *arg)
			}
			children[i] = c
		}
		if len(nd.Args) > 0 {
			n.Child1, n.Child2, n.Child3 = children[0], children[1], children[2]
		}
	}
	return nil
}

func (b *builder) symbols(docs []SymbolDoc) error {
	for _, s := range docs {
		n, ok := b.nodes[s.Node]
		if !ok {
			return fmt.Errorf("symbol '%s' refers to unknown node %d", s.Name, s.Node)
		}
		if err := b.g.Bind(s.Name, n); err != nil {
			return err
		}
		if s.Comment != "" {
			b.g.SetComment(s.Name, s.Comment)
		}
	}
	return nil
}

func (b *builder) objective(doc *ObjectiveDoc) (*objective.Objective, error) {
	var minimize bool
	switch strings.ToLower(doc.Sense) {
	case "", "min", "minimize":
		minimize = true
	case "max", "maximize":
	default:
		return nil, fmt.Errorf("objective: unknown sense '%s'", doc.Sense)
	}

	obj := objective.New(minimize)
	for _, s := range doc.Summands {
		if b.g.Node(s.Symbol) == nil {
			return nil, fmt.Errorf("objective: unknown symbol '%s'", s.Symbol)
		}
		kind, err := objective.ParseKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("objective: %w", err)
		}
		weight := 1.0
		if s.Weight != nil {
			weight = *s.Weight
		}
		obj.Add(kind, s.Symbol, weight)
	}
	return obj, nil
}
