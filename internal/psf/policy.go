package psf

import (
	"github.com/san-kum/psfsim/internal/aperture"
	"github.com/san-kum/psfsim/internal/grid"
)

// DefaultNormRadius is the aperture radius, in output pixels, used by
// aperture-normalized models when none is given.
const DefaultNormRadius = 5.5

// Policy defines how a model computes its raw flux and applies flux
// normalization. The two implementations differ in a load-bearing way:
// GlobalFlux normalizes lazily through an evaluation-time constant,
// Aperture normalizes eagerly by rescaling the stored grid.
type Policy interface {
	// Name identifies the policy in metadata and logs.
	Name() string

	// RawFlux computes the uncorrected flux of the sample grid.
	RawFlux(g *grid.Grid, os grid.Pair) float64

	// Apply applies the normalization for the given raw flux and
	// correction factor, possibly mutating g, and returns the constant
	// to use at evaluation time.
	Apply(g *grid.Grid, rawFlux, correction float64) float64

	// Rescale adjusts an already-applied normalization for a change of
	// correction factor, using the cached raw flux, and returns the
	// new evaluation constant.
	Rescale(g *grid.Grid, rawFlux, oldCorrection, newCorrection float64) float64

	// NormalizedData returns the normalized samples given the stored
	// grid and current constant.
	NormalizedData(g *grid.Grid, constant float64) *grid.Grid

	// DefaultOrigin returns the default coordinate origin for a grid
	// of the given shape.
	DefaultOrigin(ny, nx int, os grid.Pair) (x, y float64)

	// SurfaceScale returns the per-axis factors mapping grid indices
	// to the coordinates the surface is built over.
	SurfaceScale(os grid.Pair) (sx, sy float64)

	// Oversamples reports whether evaluation multiplies query offsets
	// by the oversampling factors.
	Oversamples() bool

	// AppliesConstant reports whether evaluation multiplies results by
	// the normalization constant. Eager policies bake the constant
	// into the grid instead.
	AppliesConstant() bool
}

// GlobalFlux normalizes against the sum of all grid samples. The grid
// is never modified; the derived constant is applied at evaluation
// time. This is the default policy.
type GlobalFlux struct{}

func (GlobalFlux) Name() string { return "global-flux" }

func (GlobalFlux) RawFlux(g *grid.Grid, _ grid.Pair) float64 { return g.Sum() }

func (GlobalFlux) Apply(_ *grid.Grid, rawFlux, correction float64) float64 {
	return 1 / (correction * rawFlux)
}

func (GlobalFlux) Rescale(_ *grid.Grid, rawFlux, _, newCorrection float64) float64 {
	return 1 / (newCorrection * rawFlux)
}

func (GlobalFlux) NormalizedData(g *grid.Grid, constant float64) *grid.Grid {
	nd := g.Clone()
	nd.Scale(constant)
	return nd
}

func (GlobalFlux) DefaultOrigin(ny, nx int, _ grid.Pair) (float64, float64) {
	return float64(nx-1) / 2, float64(ny-1) / 2
}

func (GlobalFlux) SurfaceScale(_ grid.Pair) (float64, float64) { return 1, 1 }

func (GlobalFlux) Oversamples() bool { return true }

func (GlobalFlux) AppliesConstant() bool { return true }

// Aperture normalizes against the exact circular-aperture flux of
// radius Radius (in output pixels) around the grid midpoint, so that a
// fitted flux corresponds to aperture photometry within that radius.
// Normalization divides the stored grid in place; evaluation applies
// no further constant.
//
// The aperture radius in grid samples is Radius scaled by the y-axis
// oversampling factor, matching the historical behavior of effective
// PSF construction. With unequal per-axis oversampling the aperture
// stays circular in grid samples rather than in output pixels; see the
// unequal-oversampling tests before relying on that case.
type Aperture struct {
	// Radius is the normalization radius in output pixels. Zero means
	// DefaultNormRadius.
	Radius float64
}

func (p Aperture) Name() string { return "aperture" }

func (p Aperture) radius() float64 {
	if p.Radius == 0 {
		return DefaultNormRadius
	}
	return p.Radius
}

func (p Aperture) RawFlux(g *grid.Grid, os grid.Pair) float64 {
	cx := float64(g.NX()) / 2
	cy := float64(g.NY()) / 2
	r := p.radius() * float64(os.Y)
	return aperture.CircularFlux(g, cx, cy, r) / float64(os.Prod())
}

func (p Aperture) Apply(g *grid.Grid, rawFlux, correction float64) float64 {
	g.Scale(1 / (rawFlux * correction))
	return 1
}

func (p Aperture) Rescale(g *grid.Grid, _, oldCorrection, newCorrection float64) float64 {
	g.Scale(oldCorrection / newCorrection)
	return 1
}

func (p Aperture) NormalizedData(g *grid.Grid, _ float64) *grid.Grid {
	// Normalization already rescaled the stored samples.
	return g
}

func (p Aperture) DefaultOrigin(ny, nx int, os grid.Pair) (float64, float64) {
	return float64(nx-1) / 2 / float64(os.X), float64(ny-1) / 2 / float64(os.Y)
}

func (p Aperture) SurfaceScale(os grid.Pair) (float64, float64) {
	return 1 / float64(os.X), 1 / float64(os.Y)
}

func (p Aperture) Oversamples() bool { return false }

func (p Aperture) AppliesConstant() bool { return false }
