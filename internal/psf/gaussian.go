package psf

import (
	"math"

	"github.com/san-kum/psfsim/internal/grid"
)

// fwhm = 2*sqrt(2*ln 2) * sigma
var fwhmToSigma = 1 / (2 * math.Sqrt(2*math.Log(2)))

// GaussianGrid samples a circular Gaussian of the given FWHM (in
// output pixels) on a grid spanning size x size output pixels at the
// given oversampling, peak-normalized to 1 at the center. It is a
// convenience for building self-contained reference PSFs.
func GaussianGrid(fwhm float64, size int, os grid.Pair) (*grid.Grid, error) {
	if fwhm <= 0 || size < 1 {
		return nil, ErrGaussianShape
	}
	if err := os.Validate("oversampling", 1); err != nil {
		return nil, err
	}
	nx := size * os.X
	ny := size * os.Y
	sigX := fwhm * fwhmToSigma * float64(os.X)
	sigY := fwhm * fwhmToSigma * float64(os.Y)
	cx := float64(nx-1) / 2
	cy := float64(ny-1) / 2

	g := grid.Zeros(ny, nx)
	for iy := 0; iy < ny; iy++ {
		dy := (float64(iy) - cy) / sigY
		for ix := 0; ix < nx; ix++ {
			dx := (float64(ix) - cx) / sigX
			g.Set(iy, ix, math.Exp(-0.5*(dx*dx+dy*dy)))
		}
	}
	return g, nil
}
