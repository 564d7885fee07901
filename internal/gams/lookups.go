package gams

import (
	"fmt"
	"strings"

	"github.com/lhaig/sdogams/internal/escape"
	"github.com/lhaig/sdogams/internal/graph"
	"github.com/lhaig/sdogams/internal/lookup"
)

// Formulation selects how a lookup table is encoded in the GAMS model.
type Formulation int

const (
	// Spline lookups are evaluated by an external function library.
	Spline Formulation = iota
	// SOS2 lookups are encoded with special-ordered-set lambda variables.
	SOS2
)

// String returns the command-line name of the formulation.
func (f Formulation) String() string {
	switch f {
	case Spline:
		return "spline"
	case SOS2:
		return "sos2"
	default:
		return "unknown"
	}
}

// ParseFormulation resolves "spline" or "sos2".
func ParseFormulation(s string) (Formulation, error) {
	switch strings.ToLower(s) {
	case "spline":
		return Spline, nil
	case "sos2":
		return SOS2, nil
	default:
		return 0, fmt.Errorf("unknown lookup type '%s' (available: spline, sos2)", s)
	}
}

// LookupData describes one lookup table of the model.
type LookupData struct {
	Name        string
	Table       *lookup.Table
	Formulation Formulation

	// Usages counts the SOS2 call sites indexed during the last emission.
	Usages int

	// Locations lists where the table is applied, for display only.
	Locations []string
}

// Ident returns the escaped GAMS name of the lookup.
func (d *LookupData) Ident() string {
	return escape.Identifier(d.Name)
}

// lookupTable keeps the model's lookups in first-registration order.
type lookupTable struct {
	order   []*LookupData
	byTable map[*lookup.Table]*LookupData
}

// buildLookups names every table of the graph. A symbol bound to the table
// itself wins; otherwise the first symbol bound to an application of the
// table names it. Tables no symbol reaches get a generated name.
func buildLookups(g *graph.Graph, f Formulation) *lookupTable {
	lt := &lookupTable{byTable: make(map[*lookup.Table]*LookupData)}

	for _, b := range g.Symbols() {
		if b.Node.Op == graph.LOOKUP_TABLE && b.Node.Table != nil {
			lt.register(b.Name, b.Node.Table, f)
		}
	}
	for _, b := range g.Symbols() {
		if b.Node.Op == graph.APPLY_LOOKUP && b.Node.Child1 != nil && b.Node.Child1.Table != nil {
			lt.register(b.Name, b.Node.Child1.Table, f)
		}
	}

	for _, n := range g.Nodes() {
		if n.Op != graph.APPLY_LOOKUP || n.Child1 == nil || n.Child1.Table == nil {
			continue
		}
		d := lt.register(fmt.Sprintf("lookup%d", len(lt.order)), n.Child1.Table, f)
		d.Locations = append(d.Locations, n.Usages...)
	}
	return lt
}

func (lt *lookupTable) register(name string, t *lookup.Table, f Formulation) *LookupData {
	if d, ok := lt.byTable[t]; ok {
		return d
	}
	d := &LookupData{Name: name, Table: t, Formulation: f}
	lt.byTable[t] = d
	lt.order = append(lt.order, d)
	return d
}

func (lt *lookupTable) get(t *lookup.Table) *LookupData {
	return lt.byTable[t]
}

func (lt *lookupTable) hasSpline() bool {
	for _, d := range lt.order {
		if d.Formulation == Spline {
			return true
		}
	}
	return false
}

func (lt *lookupTable) hasSOS2() bool {
	for _, d := range lt.order {
		if d.Formulation == SOS2 {
			return true
		}
	}
	return false
}

func (lt *lookupTable) resetUsages() {
	for _, d := range lt.order {
		d.Usages = 0
	}
}
