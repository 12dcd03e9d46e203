// Package psf provides image-based point-spread-function models.
//
// A [Model] holds a discrete sample grid, reconstructs a continuous
// brightness surface from it by spline interpolation, and evaluates
// that surface at arbitrary fractional coordinates with intensity
// scaling (flux) and translation (x_0, y_0):
//
//	g, _ := grid.New(samples)
//	m, _ := psf.NewImageModel(g, psf.WithNormalization(true))
//	v := m.EvalWith(x, y, flux, x0, y0)
//
// Flux normalization follows one of two [Policy] implementations:
//
//   - [GlobalFlux]: the raw flux is the sum of all samples and the
//     normalization is applied lazily, as a constant multiplied in at
//     evaluation time. The stored grid is never modified.
//   - [Aperture]: the raw flux is the exact circular-aperture flux
//     around the grid center, and normalization eagerly divides the
//     stored grid in place. Evaluation applies no further constant.
//
// The two policies are deliberately not interchangeable: callers that
// need normalized samples must go through [Model.NormalizedData],
// which is defined per policy.
//
// # Thread Safety
//
// Evaluation is a pure read and safe for concurrent use. Mutations
// (SetNormalizationCorrection, SetFillValue, ComputeInterpolator,
// Normalize, parameter setters) are not thread-safe and must be
// serialized by the owner.
package psf
