// Package spline builds smooth interpolating surfaces over rectangular
// sample grids. A Surface is constructed once and then queried at
// arbitrary (fractional) coordinates; queries outside the node range
// extrapolate the boundary polynomial.
package spline

import (
	"sort"
)

// evaluator is a 1D interpolant over strictly increasing nodes.
type evaluator interface {
	eval(x float64) float64
}

// constant handles degenerate single-node axes.
type constant struct {
	v float64
}

func (c constant) eval(float64) float64 { return c.v }

// linear is a degree-1 interpolant with linear extrapolation beyond the
// end nodes.
type linear struct {
	xs, ys []float64
}

func (l linear) eval(x float64) float64 {
	j := interval(l.xs, x)
	h := l.xs[j+1] - l.xs[j]
	t := (x - l.xs[j]) / h
	return (1-t)*l.ys[j] + t*l.ys[j+1]
}

// cubic is a natural cubic spline. Second derivatives are solved at
// construction; evaluation beyond the end nodes extends the outermost
// cubic segment.
type cubic struct {
	xs, ys []float64
	y2     []float64
}

func newCubic(xs, ys []float64) cubic {
	n := len(xs)
	y2 := make([]float64, n)
	u := make([]float64, n)
	for i := 1; i < n-1; i++ {
		sig := (xs[i] - xs[i-1]) / (xs[i+1] - xs[i-1])
		p := sig*y2[i-1] + 2
		y2[i] = (sig - 1) / p
		du := (ys[i+1]-ys[i])/(xs[i+1]-xs[i]) - (ys[i]-ys[i-1])/(xs[i]-xs[i-1])
		u[i] = (6*du/(xs[i+1]-xs[i-1]) - sig*u[i-1]) / p
	}
	for k := n - 2; k >= 1; k-- {
		y2[k] = y2[k]*y2[k+1] + u[k]
	}
	return cubic{xs: xs, ys: ys, y2: y2}
}

func (c cubic) eval(x float64) float64 {
	j := interval(c.xs, x)
	h := c.xs[j+1] - c.xs[j]
	a := (c.xs[j+1] - x) / h
	b := (x - c.xs[j]) / h
	return a*c.ys[j] + b*c.ys[j+1] +
		((a*a*a-a)*c.y2[j]+(b*b*b-b)*c.y2[j+1])*h*h/6
}

// interval returns the index of the node interval containing x, clamped
// to the outermost intervals so end segments extrapolate.
func interval(xs []float64, x float64) int {
	j := sort.SearchFloat64s(xs, x) - 1
	if j < 0 {
		j = 0
	}
	if j > len(xs)-2 {
		j = len(xs) - 2
	}
	return j
}

// newEvaluator builds a 1D interpolant of the given degree over copies
// of xs and ys. Degree validation happens in Build.
func newEvaluator(xs, ys []float64, degree int) evaluator {
	if len(xs) == 1 {
		return constant{v: ys[0]}
	}
	if degree == 1 {
		return linear{xs: xs, ys: ys}
	}
	return newCubic(xs, ys)
}
