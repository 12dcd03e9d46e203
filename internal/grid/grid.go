// Package grid provides the 2D sample arrays that PSF models are built
// from, along with the (y, x) integer pair type used for per-axis
// quantities such as oversampling factors and patch shapes.
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmpty indicates a zero-sized sample array.
	ErrEmpty = errors.New("grid: sample array cannot be zero-sized")

	// ErrNotFinite indicates a sample array containing NaN or Inf.
	ErrNotFinite = errors.New("grid: all sample values must be finite")

	// ErrRagged indicates rows of unequal length.
	ErrRagged = errors.New("grid: all rows must have the same length")
)

// Grid is a dense 2D array of float64 samples, stored row-major with
// ny rows and nx columns. Element (iy, ix) corresponds to the sample at
// integer pixel coordinate x=ix, y=iy.
type Grid struct {
	ny, nx int
	data   []float64
}

// New builds a Grid from rows, copying the input. It fails on empty or
// ragged input and on non-finite sample values.
func New(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmpty
	}
	nx := len(rows[0])
	g := &Grid{ny: len(rows), nx: nx, data: make([]float64, len(rows)*nx)}
	for iy, row := range rows {
		if len(row) != nx {
			return nil, ErrRagged
		}
		copy(g.data[iy*nx:], row)
	}
	if !allFinite(g.data) {
		return nil, ErrNotFinite
	}
	return g, nil
}

// FromFlat builds a Grid from a row-major slice of ny*nx samples. The
// slice is copied.
func FromFlat(ny, nx int, data []float64) (*Grid, error) {
	if ny < 1 || nx < 1 {
		return nil, ErrEmpty
	}
	if len(data) != ny*nx {
		return nil, fmt.Errorf("grid: need %d samples for %dx%d, got %d", ny*nx, ny, nx, len(data))
	}
	if !allFinite(data) {
		return nil, ErrNotFinite
	}
	g := &Grid{ny: ny, nx: nx, data: make([]float64, len(data))}
	copy(g.data, data)
	return g, nil
}

// Zeros returns an all-zero grid of the given shape. It panics on a
// non-positive dimension; shapes are validated by callers beforehand.
func Zeros(ny, nx int) *Grid {
	if ny < 1 || nx < 1 {
		panic("grid: Zeros called with non-positive shape")
	}
	return &Grid{ny: ny, nx: nx, data: make([]float64, ny*nx)}
}

// Uniform returns a grid of the given shape with every sample set to v.
func Uniform(ny, nx int, v float64) *Grid {
	g := Zeros(ny, nx)
	for i := range g.data {
		g.data[i] = v
	}
	return g
}

// NY returns the number of rows.
func (g *Grid) NY() int { return g.ny }

// NX returns the number of columns.
func (g *Grid) NX() int { return g.nx }

// Shape returns (ny, nx) as a Pair.
func (g *Grid) Shape() Pair { return Pair{Y: g.ny, X: g.nx} }

// At returns the sample at row iy, column ix.
func (g *Grid) At(iy, ix int) float64 { return g.data[iy*g.nx+ix] }

// Set stores v at row iy, column ix.
func (g *Grid) Set(iy, ix int, v float64) { g.data[iy*g.nx+ix] = v }

// Add accumulates v into the sample at row iy, column ix.
func (g *Grid) Add(iy, ix int, v float64) { g.data[iy*g.nx+ix] += v }

// Row returns the backing slice for row iy. The slice aliases the grid.
func (g *Grid) Row(iy int) []float64 { return g.data[iy*g.nx : (iy+1)*g.nx] }

// Data returns the row-major backing slice. The slice aliases the grid.
func (g *Grid) Data() []float64 { return g.data }

// Sum returns the sum of all samples.
func (g *Grid) Sum() float64 { return floats.Sum(g.data) }

// Max returns the largest sample value.
func (g *Grid) Max() float64 { return floats.Max(g.data) }

// Scale multiplies every sample by f in place.
func (g *Grid) Scale(f float64) { floats.Scale(f, g.data) }

// AddGrid accumulates other into g element-wise. Shapes must match.
func (g *Grid) AddGrid(other *Grid) error {
	if other.ny != g.ny || other.nx != g.nx {
		return fmt.Errorf("grid: shape mismatch %dx%d vs %dx%d", g.ny, g.nx, other.ny, other.nx)
	}
	floats.Add(g.data, other.data)
	return nil
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{ny: g.ny, nx: g.nx, data: make([]float64, len(g.data))}
	copy(c.data, g.data)
	return c
}

func allFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
