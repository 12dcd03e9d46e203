package psf

import "errors"

// Domain errors for model construction and mutation.
var (
	// ErrCorrection indicates a non-positive normalization correction.
	ErrCorrection = errors.New("psf: normalization correction must be strictly positive")

	// ErrNilGrid indicates a missing sample grid.
	ErrNilGrid = errors.New("psf: sample grid is required")

	// ErrUnknownParam indicates a parameter name the model does not expose.
	ErrUnknownParam = errors.New("psf: unknown parameter")

	// ErrGaussianShape indicates invalid Gaussian grid parameters.
	ErrGaussianShape = errors.New("psf: gaussian grid needs positive fwhm and size")
)
