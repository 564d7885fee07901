package lookup

import (
	"fmt"
	"sort"
)

// Point is a single (x, y) sample of a lookup table.
type Point struct {
	X float64
	Y float64
}

// Table is a piecewise-linear lookup function given by samples ordered by x.
type Table struct {
	points []Point
}

// New creates a lookup table from the given samples. The samples are sorted
// by x; duplicate abscissas are rejected.
func New(points []Point) (*Table, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("lookup table needs at least one point")
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].X == sorted[i-1].X {
			return nil, fmt.Errorf("lookup table has duplicate x value %g", sorted[i].X)
		}
	}

	return &Table{points: sorted}, nil
}

// Points returns the samples ordered by x.
func (t *Table) Points() []Point {
	return t.points
}

// Len returns the number of samples.
func (t *Table) Len() int {
	return len(t.points)
}

// Xs returns all x values in order.
func (t *Table) Xs() []float64 {
	xs := make([]float64, len(t.points))
	for i, p := range t.points {
		xs[i] = p.X
	}
	return xs
}

// Ys returns all y values in x order.
func (t *Table) Ys() []float64 {
	ys := make([]float64, len(t.points))
	for i, p := range t.points {
		ys[i] = p.Y
	}
	return ys
}

// Eval interpolates the table linearly at x. Outside the sampled range the
// first or last y value is returned.
func (t *Table) Eval(x float64) float64 {
	pts := t.points
	if x <= pts[0].X {
		return pts[0].Y
	}
	last := pts[len(pts)-1]
	if x >= last.X {
		return last.Y
	}

	i := sort.Search(len(pts), func(i int) bool { return pts[i].X >= x })
	lo, hi := pts[i-1], pts[i]
	return lo.Y + (hi.Y-lo.Y)*(x-lo.X)/(hi.X-lo.X)
}
