// Package render writes PNG figures of generated scenes and PSF
// profiles via gonum/plot.
package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/psfsim/internal/grid"
)

var ErrNilCanvas = errors.New("render: nil canvas")

// canvasGrid adapts a grid to the plotter heat-map interface. Row 0 is
// drawn at the bottom, matching image convention of y increasing
// upward in the plot.
type canvasGrid struct {
	g *grid.Grid
}

func (c canvasGrid) Dims() (cols, rows int) { return c.g.NX(), c.g.NY() }
func (c canvasGrid) Z(col, row int) float64 { return c.g.At(row, col) }
func (c canvasGrid) X(col int) float64      { return float64(col) }
func (c canvasGrid) Y(row int) float64      { return float64(row) }

// HeatMapPNG renders the canvas as a heat map.
func HeatMapPNG(path string, g *grid.Grid, title string) error {
	if g == nil {
		return ErrNilCanvas
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (pixels)"
	p.Y.Label.Text = "y (pixels)"

	hm := plotter.NewHeatMap(canvasGrid{g: g}, palette.Heat(64, 1))
	p.Add(hm)

	w := vg.Length(g.NX()) * vg.Points(3)
	h := vg.Length(g.NY()) * vg.Points(3)
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("render: save heat map: %w", err)
	}
	return nil
}

// ProfilePNG renders a radius/value curve, e.g. a PSF radial profile.
func ProfilePNG(path string, radii, values []float64, title string) error {
	if len(radii) != len(values) {
		return fmt.Errorf("render: %d radii vs %d values", len(radii), len(values))
	}

	pts := make(plotter.XYs, len(radii))
	for i := range radii {
		pts[i] = plotter.XY{X: radii[i], Y: values[i]}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "radius (pixels)"
	p.Y.Label.Text = "value"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save profile: %w", err)
	}
	return nil
}
