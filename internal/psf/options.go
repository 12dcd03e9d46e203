package psf

import (
	"log"

	"github.com/san-kum/psfsim/internal/grid"
)

// Default fit parameter names, used unless overridden by
// WithParamNames.
const (
	DefaultXName    = "x_0"
	DefaultYName    = "y_0"
	DefaultFluxName = "flux"
)

type settings struct {
	flux         float64
	fluxSet      bool
	x0, y0       float64
	normalize    bool
	correction   float64
	originX      float64
	originY      float64
	originSet    bool
	oversampling grid.Pair
	fill         float64
	fillEnabled  bool
	degree       grid.Pair
	smoothing    float64
	xName        string
	yName        string
	fluxName     string
	warnf        func(format string, args ...any)
}

func defaultSettings() settings {
	return settings{
		correction:   1,
		oversampling: grid.PairOf(1),
		fill:         0,
		fillEnabled:  true,
		degree:       grid.PairOf(3),
		xName:        DefaultXName,
		yName:        DefaultYName,
		fluxName:     DefaultFluxName,
		warnf:        log.Printf,
	}
}

// Option customizes model construction.
type Option func(*settings)

// WithFlux sets the initial flux parameter. When unset, the flux
// defaults to the policy's raw flux of the sample grid.
func WithFlux(f float64) Option {
	return func(s *settings) {
		s.flux = f
		s.fluxSet = true
	}
}

// WithPosition sets the initial (x_0, y_0) parameters.
func WithPosition(x0, y0 float64) Option {
	return func(s *settings) {
		s.x0, s.y0 = x0, y0
	}
}

// WithNormalization requests (or suppresses) flux normalization at
// construction.
func WithNormalization(on bool) Option {
	return func(s *settings) { s.normalize = on }
}

// WithCorrection sets the strictly positive normalization correction
// factor, e.g. an aperture correction.
func WithCorrection(c float64) Option {
	return func(s *settings) { s.correction = c }
}

// WithOrigin sets the coordinate origin in the grid's own index space,
// overriding the policy default.
func WithOrigin(x, y float64) Option {
	return func(s *settings) {
		s.originX, s.originY = x, y
		s.originSet = true
	}
}

// WithOversampling sets the per-axis integer oversampling factors.
func WithOversampling(p grid.Pair) Option {
	return func(s *settings) { s.oversampling = p }
}

// WithFillValue sets the value returned for queries outside the model
// domain.
func WithFillValue(v float64) Option {
	return func(s *settings) {
		s.fill = v
		s.fillEnabled = true
	}
}

// WithPassThroughFill disables out-of-domain masking; queries outside
// the domain return the surface's own extrapolation.
func WithPassThroughFill() Option {
	return func(s *settings) { s.fillEnabled = false }
}

// WithDegree sets the per-axis interpolation degree (default cubic).
func WithDegree(p grid.Pair) Option {
	return func(s *settings) { s.degree = p }
}

// WithSmoothing sets the non-negative smoothing factor used when the
// surface is built (0 = exact interpolation).
func WithSmoothing(sm float64) Option {
	return func(s *settings) { s.smoothing = sm }
}

// WithParamNames renames the (x, y, flux) fit parameters.
func WithParamNames(x, y, flux string) Option {
	return func(s *settings) {
		s.xName, s.yName, s.fluxName = x, y, flux
	}
}

// WithWarnHandler routes recoverable-warning messages. The default
// handler logs via the standard library logger.
func WithWarnHandler(fn func(format string, args ...any)) Option {
	return func(s *settings) {
		if fn != nil {
			s.warnf = fn
		}
	}
}
