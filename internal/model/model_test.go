package model

import (
	"strings"
	"testing"

	"github.com/lhaig/sdogams/internal/graph"
	"github.com/lhaig/sdogams/internal/objective"
)

const populationModel = `
scheme: euler
lookup_type: sos2
lookups:
  - name: crowding
    points: [[0, 1], [10, 0.5], [20, 0]]
nodes:
  - {id: 0, op: constant, value: 0}
  - {id: 1, op: constant, value: 20}
  - {id: 2, op: constant, value: 1}
  - {id: 3, op: constant, value: 10}
  - {id: 4, op: integ, args: [5, 3]}
  - {id: 5, op: minus, args: [9, 8]}
  - {id: 6, op: apply_lookup, args: [7, 4], usages: ["population.mdl:7"]}
  - {id: 7, op: lookup_table, table: crowding}
  - {id: 8, op: control, control_size: 1, args: [0, ~, 1]}
  - {id: 9, op: mult, args: [6, 4]}
symbols:
  - {name: INITIAL TIME, node: 0}
  - {name: FINAL TIME, node: 1}
  - {name: TIME STEP, node: 2}
  - {name: Population, node: 4, comment: people}
  - {name: growth, node: 9}
  - {name: crowding, node: 7}
  - {name: harvest, node: 8}
objective:
  sense: max
  summands:
    - {symbol: Population, kind: mayer}
    - {symbol: harvest, weight: -0.5}
`

func TestParsePopulation(t *testing.T) {
	m, err := Parse([]byte(populationModel))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	g := m.Graph

	if m.Scheme != "euler" || m.LookupType != "sos2" {
		t.Errorf("unexpected defaults %q, %q", m.Scheme, m.LookupType)
	}
	if g.TimeStep() != 1 || g.FinalTime() != 20 {
		t.Errorf("unexpected horizon %g..%g step %g", g.InitialTime(), g.FinalTime(), g.TimeStep())
	}

	pop := g.Node("Population")
	if pop == nil || pop.Op != graph.INTEG {
		t.Fatal("expected Population to be an integrator")
	}
	if pop.Class != graph.Dynamic || pop.Init != graph.ConstantInit || pop.Value != 10 {
		t.Errorf("unexpected analysis of Population: %s, init %d, value %g", pop.Class, pop.Init, pop.Value)
	}
	if g.Comment("Population") != "people" {
		t.Errorf("expected comment, got %q", g.Comment("Population"))
	}

	growth := g.Node("growth")
	if growth.Child1.Op != graph.APPLY_LOOKUP || growth.Child1.Child1.Table == nil {
		t.Fatal("expected growth to apply the crowding table")
	}
	if got := growth.Child1.Usages; len(got) != 1 || got[0] != "population.mdl:7" {
		t.Errorf("unexpected usages %v", got)
	}
	if growth.Value != 5 {
		t.Errorf("expected growth 0.5*10 = 5 at the start, got %g", growth.Value)
	}

	harvest := g.Node("harvest")
	if harvest.ControlSize != 1 || harvest.Child2 != nil || harvest.Child3 == nil || harvest.Child3.Value != 20 {
		t.Errorf("unexpected control bounds")
	}

	obj := m.Objective
	if obj == nil || obj.Minimize || len(obj.Summands) != 2 {
		t.Fatalf("unexpected objective %+v", obj)
	}
	if obj.Summands[0] != (objective.Summand{Kind: objective.Mayer, Symbol: "Population", Weight: 1}) {
		t.Errorf("unexpected first summand %+v", obj.Summands[0])
	}
	if obj.Summands[1].Kind != objective.Lagrange || obj.Summands[1].Weight != -0.5 {
		t.Errorf("unexpected second summand %+v", obj.Summands[1])
	}

	if errs := graph.Validate(g); len(errs) != 0 {
		t.Errorf("expected a valid graph, got %v", errs)
	}
}

func TestParseWithoutObjective(t *testing.T) {
	src := `
nodes:
  - {id: 0, op: constant, value: 0}
  - {id: 1, op: constant, value: 1}
  - {id: 2, op: time}
  - {id: 3, op: time}
symbols:
  - {name: INITIAL TIME, node: 0}
  - {name: FINAL TIME, node: 1}
  - {name: TIME STEP, node: 1}
  - {name: now, node: 2}
  - {name: clock, node: 3}
`
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Objective != nil {
		t.Error("expected no objective")
	}
	if m.Graph.Node("now") != m.Graph.Node("clock") {
		t.Error("expected every time node to share the graph's TIME leaf")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "empty model file"},
		{"unknown field", "nodes: []\ncolour: red\n", "colour"},
		{"unknown op", "nodes:\n  - {id: 0, op: sigmoid}\n", "unknown operator 'sigmoid'"},
		{"duplicate id", "nodes:\n  - {id: 0, op: time}\n  - {id: 0, op: time}\n", "node 0 defined twice"},
		{"unknown arg", "nodes:\n  - {id: 0, op: uminus, args: [4]}\n", "refers to unknown node 4"},
		{"empty arg", "nodes:\n  - {id: 0, op: time}\n  - {id: 1, op: plus, args: [0, ~]}\n", "argument 2 is empty"},
		{"too many args", "nodes:\n  - {id: 0, op: time}\n  - {id: 1, op: plus, args: [0, 0, 0, 0]}\n", "at most 3"},
		{"unknown lookup", "nodes:\n  - {id: 0, op: lookup_table, table: nope}\n", "unknown lookup 'nope'"},
		{"bad lookup", "lookups:\n  - {name: l, points: [[1, 1], [1, 2]]}\nnodes: []\n", "duplicate x value"},
		{"unknown symbol node", "nodes: []\nsymbols:\n  - {name: A, node: 3}\n", "symbol 'A' refers to unknown node 3"},
		{"duplicate symbol", "nodes:\n  - {id: 0, op: time}\nsymbols:\n  - {name: A, node: 0}\n  - {name: A, node: 0}\n", "already defined"},
		{"objective symbol", "nodes: []\nobjective:\n  summands:\n    - {symbol: X}\n", "unknown symbol 'X'"},
		{"objective sense", "nodes: []\nobjective:\n  sense: sideways\n  summands: []\n", "unknown sense 'sideways'"},
		{"algebraic loop", "nodes:\n  - {id: 0, op: uminus, args: [1]}\n  - {id: 1, op: uminus, args: [0]}\n", "algebraic loop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
