// Package scene builds synthetic raster images from an evaluable PSF
// model: seeded random source placement under border and
// minimum-separation constraints, patch-local model evaluation, and a
// ground-truth source table.
//
// Placement and parameter sampling are strictly sequential so a fixed
// seed reproduces the same scene regardless of the worker count; only
// patch evaluation fans out. See [Generate].
package scene
