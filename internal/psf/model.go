package psf

import (
	"fmt"
	"math"

	"github.com/san-kum/psfsim/internal/grid"
	"github.com/san-kum/psfsim/internal/spline"
)

// NormStatus reports the outcome of flux normalization.
type NormStatus int

const (
	// NormPerformed means the model was normalized at the user's request.
	NormPerformed NormStatus = iota
	// NormFailed means a requested normalization fell back to a
	// constant of 1 because the raw flux was zero or non-finite.
	NormFailed
	// NormNotRequested means no normalization was requested.
	NormNotRequested
)

func (s NormStatus) String() string {
	switch s {
	case NormPerformed:
		return "performed"
	case NormFailed:
		return "failed"
	case NormNotRequested:
		return "not-requested"
	default:
		return fmt.Sprintf("NormStatus(%d)", int(s))
	}
}

// Model is an image-based PSF model: a sample grid, a normalization
// policy, and an interpolating surface evaluated at fractional
// coordinates under translation (x_0, y_0) and intensity scaling
// (flux).
type Model struct {
	data         *grid.Grid
	ny, nx       int
	oversampling grid.Pair
	policy       Policy

	xOrigin, yOrigin float64

	flux, x0, y0           float64
	xName, yName, fluxName string

	fill        float64
	fillEnabled bool

	correction float64
	constant   float64
	status     NormStatus
	rawFlux    float64
	hasRawFlux bool
	applied    bool

	degree    grid.Pair
	smoothing float64
	surface   *spline.Surface

	warnf func(format string, args ...any)
}

// New builds a model over a copy of g using the given normalization
// policy. A nil policy defaults to GlobalFlux.
func New(g *grid.Grid, policy Policy, opts ...Option) (*Model, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	if policy == nil {
		policy = GlobalFlux{}
	}
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	if s.correction <= 0 {
		return nil, ErrCorrection
	}
	if err := s.oversampling.Validate("oversampling", 1); err != nil {
		return nil, err
	}

	m := &Model{
		data:         g.Clone(),
		ny:           g.NY(),
		nx:           g.NX(),
		oversampling: s.oversampling,
		policy:       policy,
		x0:           s.x0,
		y0:           s.y0,
		xName:        s.xName,
		yName:        s.yName,
		fluxName:     s.fluxName,
		fill:         s.fill,
		fillEnabled:  s.fillEnabled,
		correction:   s.correction,
		warnf:        s.warnf,
	}

	if s.originSet {
		m.xOrigin, m.yOrigin = s.originX, s.originY
	} else {
		m.xOrigin, m.yOrigin = policy.DefaultOrigin(m.ny, m.nx, m.oversampling)
	}

	// The initial flux defaults to the raw flux of the unnormalized
	// grid, so it must be resolved before any eager normalization.
	if s.fluxSet {
		m.flux = s.flux
	} else {
		m.flux = m.rawFluxValue()
	}

	m.computeNormalization(s.normalize)

	if err := m.ComputeInterpolator(s.degree, s.smoothing); err != nil {
		return nil, err
	}
	return m, nil
}

// NewImageModel builds a model with the default global-flux policy.
// Normalization is off unless requested via WithNormalization.
func NewImageModel(g *grid.Grid, opts ...Option) (*Model, error) {
	return New(g, GlobalFlux{}, opts...)
}

// NewEffective builds an effective-PSF model: aperture normalization
// policy with the default radius, normalization on by default, and the
// origin expressed in output-pixel units. Options may override the
// defaults.
func NewEffective(g *grid.Grid, opts ...Option) (*Model, error) {
	opts = append([]Option{WithNormalization(true)}, opts...)
	return New(g, Aperture{}, opts...)
}

// rawFluxValue returns the policy raw flux, computing it at most once.
func (m *Model) rawFluxValue() float64 {
	if !m.hasRawFlux {
		m.rawFlux = m.policy.RawFlux(m.data, m.oversampling)
		m.hasRawFlux = true
	}
	return m.rawFlux
}

// computeNormalization runs the normalization state machine. The raw
// flux is never recomputed once cached; repeated invocations with an
// eager policy do not rescale the grid twice.
func (m *Model) computeNormalization(requested bool) {
	m.constant = 1 / m.correction
	if !requested {
		m.status = NormNotRequested
		return
	}

	rf := m.rawFluxValue()
	if rf == 0 || math.IsNaN(rf) || math.IsInf(rf, 0) {
		m.constant = 1
		m.status = NormFailed
		if !m.policy.AppliesConstant() {
			// Keep eager policies well-defined for later corrections.
			m.rawFlux = 1
		}
		m.warnf("psf: overflow computing normalization constant (raw flux %v); constant set to 1", rf)
		return
	}

	if m.policy.AppliesConstant() {
		m.constant = m.policy.Apply(m.data, rf, m.correction)
	} else if !m.applied {
		m.constant = m.policy.Apply(m.data, rf, m.correction)
		m.applied = true
	} else {
		m.constant = 1
	}
	m.status = NormPerformed
}

// Normalize performs normalization on demand for a model constructed
// without it. The cached raw flux is reused; calling Normalize twice
// with the same correction factor yields the same constant and never
// rescales the grid a second time.
func (m *Model) Normalize() error {
	wasApplied := m.applied
	m.computeNormalization(true)
	if m.applied && !wasApplied {
		return m.rebuildSurface()
	}
	return nil
}

// SetNormalizationCorrection changes the correction factor as one
// atomic transaction: the derived constant is recomputed from the
// cached raw flux (the grid is never re-summed) and the flux parameter
// is rescaled by newCorrection/oldCorrection, so a previously good fit
// remains good.
func (m *Model) SetNormalizationCorrection(c float64) error {
	if c <= 0 {
		return ErrCorrection
	}
	old := m.correction
	m.correction = c

	switch m.status {
	case NormNotRequested:
		m.constant = 1 / c
	case NormPerformed:
		m.constant = m.policy.Rescale(m.data, m.rawFlux, old, c)
	case NormFailed:
		// The fallback constant stays; flux still tracks the correction.
	}
	m.flux *= c / old

	if m.status == NormPerformed && !m.policy.AppliesConstant() {
		// Eager policies rescaled the grid, so the surface is stale.
		return m.rebuildSurface()
	}
	return nil
}

// ComputeInterpolator (re)builds the interpolating surface over the
// grid with the given per-axis degrees and smoothing factor. The
// surface domain is the grid's index coordinates, rescaled per policy.
func (m *Model) ComputeInterpolator(degree grid.Pair, smoothing float64) error {
	if degree.X < 0 || degree.Y < 0 {
		return spline.ErrDegree
	}
	sx, sy := m.policy.SurfaceScale(m.oversampling)
	xs := make([]float64, m.nx)
	for i := range xs {
		xs[i] = float64(i) * sx
	}
	ys := make([]float64, m.ny)
	for i := range ys {
		ys[i] = float64(i) * sy
	}
	srf, err := spline.Build(xs, ys, m.data, degree.X, degree.Y, smoothing)
	if err != nil {
		return err
	}
	m.degree = degree
	m.smoothing = smoothing
	m.surface = srf
	return nil
}

func (m *Model) rebuildSurface() error {
	return m.ComputeInterpolator(m.degree, m.smoothing)
}

// evalOne maps one output-space query to grid coordinates and samples
// the surface.
func (m *Model) evalOne(x, y, flux, x0, y0 float64, useOversampling bool) float64 {
	osx, osy := 1.0, 1.0
	if useOversampling && m.policy.Oversamples() {
		osx = float64(m.oversampling.X)
		osy = float64(m.oversampling.Y)
	}
	xi := osx*(x-x0) + m.xOrigin
	yi := osy*(y-y0) + m.yOrigin

	if m.fillEnabled {
		sx, sy := m.policy.SurfaceScale(m.oversampling)
		if xi < 0 || xi > float64(m.nx-1)*sx || yi < 0 || yi > float64(m.ny-1)*sy {
			return m.fill
		}
	}

	mult := flux
	if m.policy.AppliesConstant() {
		mult *= m.constant
	}
	return mult * m.surface.Eval(xi, yi)
}

// Evaluate evaluates the model at each (xs[i], ys[i]) with explicit
// parameters. When out is non-nil it receives the results; otherwise a
// new slice is allocated. Transformed coordinates outside the model
// domain yield the fill value unless pass-through fill is enabled.
func (m *Model) Evaluate(xs, ys, out []float64, flux, x0, y0 float64, useOversampling bool) []float64 {
	if out == nil {
		out = make([]float64, len(xs))
	}
	for i := range xs {
		out[i] = m.evalOne(xs[i], ys[i], flux, x0, y0, useOversampling)
	}
	return out
}

// EvalWith evaluates the model at (x, y) with explicit parameters and
// oversampling applied. It performs no mutation and is safe for
// concurrent use.
func (m *Model) EvalWith(x, y, flux, x0, y0 float64) float64 {
	return m.evalOne(x, y, flux, x0, y0, true)
}

// Eval evaluates the model at (x, y) using its current parameters.
func (m *Model) Eval(x, y float64) float64 {
	return m.evalOne(x, y, m.flux, m.x0, m.y0, true)
}

// Clone returns an independent copy sharing no mutable state. The
// built surface is shared; it is read-only.
func (m *Model) Clone() *Model {
	c := *m
	c.data = m.data.Clone()
	return &c
}

// BoundingBox returns the (ny, nx) extent, in output pixels, of the
// region the model covers, with a floor of one pixel per axis.
func (m *Model) BoundingBox() grid.Pair {
	h := int(math.Round(float64(m.ny-1) / float64(m.oversampling.Y)))
	w := int(math.Round(float64(m.nx-1) / float64(m.oversampling.X)))
	if h < 1 {
		h = 1
	}
	if w < 1 {
		w = 1
	}
	return grid.Pair{Y: h, X: w}
}

// Data returns the stored sample grid. For eager policies this is the
// normalized grid. Callers must not modify it.
func (m *Model) Data() *grid.Grid { return m.data }

// NormalizedData returns the normalized samples as defined by the
// model's policy: a rescaled copy for lazy policies, the stored grid
// itself for eager ones.
func (m *Model) NormalizedData() *grid.Grid {
	return m.policy.NormalizedData(m.data, m.constant)
}

// Policy returns the model's normalization policy.
func (m *Model) Policy() Policy { return m.policy }

// NX returns the number of grid columns.
func (m *Model) NX() int { return m.nx }

// NY returns the number of grid rows.
func (m *Model) NY() int { return m.ny }

// Oversampling returns the per-axis oversampling factors.
func (m *Model) Oversampling() grid.Pair { return m.oversampling }

// Origin returns the (x, y) coordinate origin in grid index space.
func (m *Model) Origin() (x, y float64) { return m.xOrigin, m.yOrigin }

// SetOrigin moves the coordinate origin. The fit parameters x_0, y_0
// and flux are not adjusted.
func (m *Model) SetOrigin(x, y float64) {
	m.xOrigin, m.yOrigin = x, y
}

// ResetOrigin restores the policy's default origin.
func (m *Model) ResetOrigin() {
	m.xOrigin, m.yOrigin = m.policy.DefaultOrigin(m.ny, m.nx, m.oversampling)
}

// FillValue returns the out-of-domain fill value and whether fill
// masking is enabled.
func (m *Model) FillValue() (v float64, enabled bool) { return m.fill, m.fillEnabled }

// SetFillValue enables fill masking with the given value.
func (m *Model) SetFillValue(v float64) {
	m.fill = v
	m.fillEnabled = true
}

// DisableFill switches to pass-through fill: out-of-domain queries
// return the surface extrapolation instead of a fill value.
func (m *Model) DisableFill() { m.fillEnabled = false }

// NormalizationStatus returns the outcome of the last normalization.
func (m *Model) NormalizationStatus() NormStatus { return m.status }

// NormalizationConstant returns the evaluation-time constant.
func (m *Model) NormalizationConstant() float64 { return m.constant }

// NormalizationCorrection returns the current correction factor.
func (m *Model) NormalizationCorrection() float64 { return m.correction }

// RawFluxCached returns the cached raw flux and whether it has been
// computed.
func (m *Model) RawFluxCached() (float64, bool) { return m.rawFlux, m.hasRawFlux }

// Flux returns the flux parameter.
func (m *Model) Flux() float64 { return m.flux }

// SetFlux sets the flux parameter.
func (m *Model) SetFlux(f float64) { m.flux = f }

// Position returns the (x_0, y_0) parameters.
func (m *Model) Position() (x0, y0 float64) { return m.x0, m.y0 }

// SetPosition sets the (x_0, y_0) parameters.
func (m *Model) SetPosition(x0, y0 float64) { m.x0, m.y0 = x0, y0 }

// XName returns the x-position parameter name.
func (m *Model) XName() string { return m.xName }

// YName returns the y-position parameter name.
func (m *Model) YName() string { return m.yName }

// FluxName returns the flux parameter name.
func (m *Model) FluxName() string { return m.fluxName }

// ParamNames lists the model's parameter names in (x, y, flux) order.
func (m *Model) ParamNames() []string {
	return []string{m.xName, m.yName, m.fluxName}
}

// SetParam sets a parameter by name.
func (m *Model) SetParam(name string, v float64) error {
	switch name {
	case m.xName:
		m.x0 = v
	case m.yName:
		m.y0 = v
	case m.fluxName:
		m.flux = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// Param returns a parameter value by name.
func (m *Model) Param(name string) (float64, error) {
	switch name {
	case m.xName:
		return m.x0, nil
	case m.yName:
		return m.y0, nil
	case m.fluxName:
		return m.flux, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
}
