package tableau

import (
	"fmt"
	"math"
	"strings"
)

// Name identifies a discretization scheme.
type Name int

const (
	Euler Name = iota
	RungeKutta2
	RungeKutta3
	RungeKutta4
	ImplicitMidpoint2
	GaussLegendre4
)

// String returns the command-line name of the scheme.
func (n Name) String() string {
	switch n {
	case Euler:
		return "euler"
	case RungeKutta2:
		return "rk2"
	case RungeKutta3:
		return "rk3"
	case RungeKutta4:
		return "rk4"
	case ImplicitMidpoint2:
		return "imid2"
	case GaussLegendre4:
		return "igl4"
	default:
		return "unknown"
	}
}

// Tableau is a Butcher tableau: a square coefficient matrix and a row of
// quadrature weights, one entry per stage.
type Tableau struct {
	name   Name
	coeffs [][]float64
	weight []float64
}

// Parse resolves a scheme by its command-line name.
func Parse(name string) (Name, error) {
	switch strings.ToLower(name) {
	case "euler":
		return Euler, nil
	case "rk2":
		return RungeKutta2, nil
	case "rk3":
		return RungeKutta3, nil
	case "rk4":
		return RungeKutta4, nil
	case "imid2":
		return ImplicitMidpoint2, nil
	case "igl4":
		return GaussLegendre4, nil
	default:
		return 0, fmt.Errorf("unknown discretization method '%s' (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists the available schemes in declaration order.
func Names() []string {
	return []string{"euler", "rk2", "rk3", "rk4", "imid2", "igl4"}
}

// New returns the tableau for the given scheme.
func New(name Name) *Tableau {
	switch name {
	case Euler:
		return &Tableau{
			name:   name,
			coeffs: [][]float64{{0}},
			weight: []float64{1},
		}
	case RungeKutta2:
		return &Tableau{
			name: name,
			coeffs: [][]float64{
				{0, 0},
				{1, 0},
			},
			weight: []float64{0.5, 0.5},
		}
	case RungeKutta3:
		return &Tableau{
			name: name,
			coeffs: [][]float64{
				{0, 0, 0},
				{0.5, 0, 0},
				{-1, 2, 0},
			},
			weight: []float64{1.0 / 6, 2.0 / 3, 1.0 / 6},
		}
	case RungeKutta4:
		return &Tableau{
			name: name,
			coeffs: [][]float64{
				{0, 0, 0, 0},
				{0.5, 0, 0, 0},
				{0, 0.5, 0, 0},
				{0, 0, 1, 0},
			},
			weight: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		}
	case ImplicitMidpoint2:
		return &Tableau{
			name:   name,
			coeffs: [][]float64{{0.5}},
			weight: []float64{1},
		}
	case GaussLegendre4:
		r := math.Sqrt(3) / 6
		return &Tableau{
			name: name,
			coeffs: [][]float64{
				{0.25, 0.25 - r},
				{0.25 + r, 0.25},
			},
			weight: []float64{0.5, 0.5},
		}
	default:
		panic(fmt.Sprintf("tableau: unknown scheme %d", int(name)))
	}
}

// SingleStage reports whether the scheme needs no stage set.
func (t *Tableau) SingleStage() bool {
	return t.name == Euler
}

// Stages returns the number of stages.
func (t *Tableau) Stages() int {
	return len(t.weight)
}

// Coefficient returns a(i, j) with zero-based stage indices.
func (t *Tableau) Coefficient(i, j int) float64 {
	return t.coeffs[i][j]
}

// Weight returns b(i) with a zero-based stage index.
func (t *Tableau) Weight(i int) float64 {
	return t.weight[i]
}
