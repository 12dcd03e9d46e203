package spline

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/psfsim/internal/grid"
)

var (
	// ErrDegree indicates a negative interpolation degree.
	ErrDegree = errors.New("spline: interpolation degree must be non-negative")

	// ErrSmoothing indicates a negative smoothing factor.
	ErrSmoothing = errors.New("spline: smoothing factor must be non-negative")
)

// Surface is a smooth bivariate interpolant over a rectangular grid,
// built as a tensor product of 1D interpolants: one per grid row along
// x, combined across rows along y at query time.
//
// A built Surface is read-only and safe for concurrent queries.
type Surface struct {
	ys   []float64
	degY int
	rows []evaluator
}

// Build constructs a Surface over the sample grid g. xs must hold one
// strictly increasing coordinate per grid column and ys one per grid
// row. Supported degrees are 1 (linear) and 3 (cubic) per axis; a
// smoothing factor s > 0 applies ceil(s) separable pre-smoothing passes
// to a copy of the samples before interpolation, while s == 0
// interpolates the samples exactly.
func Build(xs, ys []float64, g *grid.Grid, degX, degY int, smoothing float64) (*Surface, error) {
	if len(xs) != g.NX() || len(ys) != g.NY() {
		return nil, fmt.Errorf("spline: coordinate lengths (%d, %d) do not match grid shape %dx%d",
			len(xs), len(ys), g.NY(), g.NX())
	}
	if degX < 0 || degY < 0 {
		return nil, ErrDegree
	}
	if err := checkDegree(degX); err != nil {
		return nil, err
	}
	if err := checkDegree(degY); err != nil {
		return nil, err
	}
	if smoothing < 0 {
		return nil, ErrSmoothing
	}
	if !increasing(xs) || !increasing(ys) {
		return nil, errors.New("spline: node coordinates must be strictly increasing")
	}

	samples := g
	if smoothing > 0 {
		samples = presmooth(g, int(math.Ceil(smoothing)))
	}

	s := &Surface{
		ys:   append([]float64(nil), ys...),
		degY: degY,
		rows: make([]evaluator, g.NY()),
	}
	xcopy := append([]float64(nil), xs...)
	for iy := 0; iy < g.NY(); iy++ {
		row := append([]float64(nil), samples.Row(iy)...)
		s.rows[iy] = newEvaluator(xcopy, row, degX)
	}
	return s, nil
}

// Eval returns the surface value at (x, y).
func (s *Surface) Eval(x, y float64) float64 {
	col := make([]float64, len(s.rows))
	for iy, row := range s.rows {
		col[iy] = row.eval(x)
	}
	return newEvaluator(s.ys, col, s.degY).eval(y)
}

// EvalAll evaluates the surface at each (xs[i], ys[i]) pair. When out
// is non-nil it must have the same length and receives the results;
// otherwise a new slice is allocated.
func (s *Surface) EvalAll(xs, ys, out []float64) []float64 {
	if out == nil {
		out = make([]float64, len(xs))
	}
	col := make([]float64, len(s.rows))
	for i := range xs {
		for iy, row := range s.rows {
			col[iy] = row.eval(xs[i])
		}
		out[i] = newEvaluator(s.ys, col, s.degY).eval(ys[i])
	}
	return out
}

func checkDegree(deg int) error {
	if deg != 1 && deg != 3 {
		return fmt.Errorf("spline: unsupported interpolation degree %d (supported: 1, 3)", deg)
	}
	return nil
}

func increasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

// presmooth applies n separable [1 2 1]/4 passes along each axis with
// clamped edges, returning a smoothed copy.
func presmooth(g *grid.Grid, n int) *grid.Grid {
	out := g.Clone()
	buf := make([]float64, maxInt(g.NX(), g.NY()))
	for pass := 0; pass < n; pass++ {
		for iy := 0; iy < out.NY(); iy++ {
			smooth1D(out.Row(iy), buf[:out.NX()])
		}
		col := make([]float64, out.NY())
		for ix := 0; ix < out.NX(); ix++ {
			for iy := 0; iy < out.NY(); iy++ {
				col[iy] = out.At(iy, ix)
			}
			smooth1D(col, buf[:out.NY()])
			for iy := 0; iy < out.NY(); iy++ {
				out.Set(iy, ix, col[iy])
			}
		}
	}
	return out
}

func smooth1D(v, buf []float64) {
	n := len(v)
	if n < 2 {
		return
	}
	buf[0] = (3*v[0] + v[1]) / 4
	buf[n-1] = (3*v[n-1] + v[n-2]) / 4
	for i := 1; i < n-1; i++ {
		buf[i] = (v[i-1] + 2*v[i] + v[i+1]) / 4
	}
	copy(v, buf)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
