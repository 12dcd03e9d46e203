package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// Evaluator is any point-evaluable image model.
type Evaluator interface {
	Eval(x, y float64) float64
}

// RadialProfile samples the azimuthally averaged profile of the model
// around (cx, cy) at n radii up to maxR. The first sample is the
// center value itself.
func RadialProfile(m Evaluator, cx, cy, maxR float64, n int) (radii, values []float64) {
	if n < 2 || maxR <= 0 {
		return nil, nil
	}
	const angles = 32

	radii = make([]float64, n)
	values = make([]float64, n)
	values[0] = m.Eval(cx, cy)
	for i := 1; i < n; i++ {
		r := maxR * float64(i) / float64(n-1)
		radii[i] = r
		var sum float64
		for a := 0; a < angles; a++ {
			phi := 2 * math.Pi * float64(a) / angles
			sum += m.Eval(cx+r*math.Cos(phi), cy+r*math.Sin(phi))
		}
		values[i] = sum / angles
	}
	return radii, values
}

// ProfileChart renders the values as an ASCII line chart.
func ProfileChart(values []float64, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	)
}
