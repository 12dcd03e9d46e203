// Package aperture implements exact fractional-pixel circular aperture
// photometry on sample grids. Pixel (ix, iy) is treated as the unit
// square centered on the integer coordinate, spanning
// [ix-0.5, ix+0.5] x [iy-0.5, iy+0.5].
package aperture

import (
	"math"

	"github.com/san-kum/psfsim/internal/grid"
)

// CircularFlux returns the flux of g inside the circle of radius r
// centered at (cx, cy), weighting each pixel by the exact geometric
// overlap area between the pixel square and the circle. A non-positive
// radius yields zero flux.
func CircularFlux(g *grid.Grid, cx, cy, r float64) float64 {
	if r <= 0 {
		return 0
	}
	ixMin := int(math.Floor(cx-r)) - 1
	ixMax := int(math.Ceil(cx+r)) + 1
	iyMin := int(math.Floor(cy-r)) - 1
	iyMax := int(math.Ceil(cy+r)) + 1
	if ixMin < 0 {
		ixMin = 0
	}
	if iyMin < 0 {
		iyMin = 0
	}
	if ixMax > g.NX()-1 {
		ixMax = g.NX() - 1
	}
	if iyMax > g.NY()-1 {
		iyMax = g.NY() - 1
	}

	flux := 0.0
	for iy := iyMin; iy <= iyMax; iy++ {
		for ix := ixMin; ix <= ixMax; ix++ {
			w := Overlap(float64(ix)-cx-0.5, float64(ix)-cx+0.5,
				float64(iy)-cy-0.5, float64(iy)-cy+0.5, r)
			if w > 0 {
				flux += w * g.At(iy, ix)
			}
		}
	}
	return flux
}

// Overlap returns the area of the intersection between the rectangle
// [x0, x1] x [y0, y1] and the disk of radius r centered at the origin.
func Overlap(x0, x1, y0, y1, r float64) float64 {
	return cornerArea(x1, y1, r) - cornerArea(x0, y1, r) -
		cornerArea(x1, y0, r) + cornerArea(x0, y0, r)
}

// cornerArea returns the signed area of the intersection between the
// axis-aligned rectangle spanned by the origin and (x, y) and the disk
// of radius r centered at the origin.
func cornerArea(x, y, r float64) float64 {
	s := 1.0
	if x < 0 {
		x, s = -x, -s
	}
	if y < 0 {
		y, s = -y, -s
	}
	return s * quadrantArea(x, y, r)
}

// quadrantArea returns the area of the disk of radius r centered at the
// origin intersected with [0, x] x [0, y], for x, y >= 0. It integrates
// min(y, sqrt(r^2 - t^2)) over t in [0, min(x, r)].
func quadrantArea(x, y, r float64) float64 {
	if x > r {
		x = r
	}
	if y > r {
		y = r
	}
	// xc is where the circle drops below height y.
	xc := math.Sqrt(math.Max(r*r-y*y, 0))
	if x <= xc {
		return x * y
	}
	return xc*y + arcIntegral(x, r) - arcIntegral(xc, r)
}

// arcIntegral is the antiderivative of sqrt(r^2 - t^2):
// (t*sqrt(r^2-t^2) + r^2*asin(t/r)) / 2.
func arcIntegral(t, r float64) float64 {
	if t > r {
		t = r
	}
	return (t*math.Sqrt(math.Max(r*r-t*t, 0)) + r*r*math.Asin(t/r)) / 2
}
