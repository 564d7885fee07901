package objective

import (
	"fmt"
	"strings"
)

// Kind tells whether a summand is evaluated at the final period only or
// accumulated over the horizon.
type Kind int

const (
	Mayer    Kind = iota // terminal value
	Lagrange             // running sum
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Mayer:
		return "mayer"
	case Lagrange:
		return "lagrange"
	default:
		return "unknown"
	}
}

// ParseKind resolves "mayer"/"terminal" and "lagrange"/"running".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "mayer", "terminal":
		return Mayer, nil
	case "lagrange", "running", "":
		return Lagrange, nil
	default:
		return 0, fmt.Errorf("unknown summand kind '%s'", s)
	}
}

// Summand is a weighted contribution of one symbol to the objective.
type Summand struct {
	Kind   Kind
	Symbol string
	Weight float64
}

// Objective is an ordered sum of summands and an optimization sense.
type Objective struct {
	Minimize bool
	Summands []Summand
}

// New returns an empty objective with the given sense.
func New(minimize bool) *Objective {
	return &Objective{Minimize: minimize}
}

// Add appends a summand.
func (o *Objective) Add(kind Kind, symbol string, weight float64) {
	o.Summands = append(o.Summands, Summand{Kind: kind, Symbol: symbol, Weight: weight})
}

// Empty reports whether the objective has no summands. A nil objective is empty.
func (o *Objective) Empty() bool {
	return o == nil || len(o.Summands) == 0
}
