package psf

import (
	"math"
	"testing"

	"github.com/san-kum/psfsim/internal/grid"
)

func TestEffective_NormalizedInPlace(t *testing.T) {
	m, err := NewEffective(ones(3), WithOversampling(grid.PairOf(1)),
		WithFlux(1))
	if err != nil {
		t.Fatal(err)
	}
	// Default radius 5.5 covers the whole 3x3 grid: raw flux is 9 and
	// the stored grid is divided in place.
	if m.NormalizationStatus() != NormPerformed {
		t.Fatalf("status=%v, want performed", m.NormalizationStatus())
	}
	if got := m.Data().Sum(); math.Abs(got-1) > 1e-9 {
		t.Errorf("stored grid sum=%v, want 1 (eager normalization)", got)
	}
	// NormalizedData returns the stored grid unchanged.
	if m.NormalizedData() != m.Data() {
		t.Error("aperture NormalizedData is not the stored grid")
	}
}

func TestEffective_RawFluxDividedByOversampling(t *testing.T) {
	// A uniform unit field at oversampling k has aperture flux
	// pi*(r*k)^2 over k^2 samples per output pixel.
	g := grid.Uniform(44, 44, 1)
	p := Aperture{Radius: 4}
	os := grid.PairOf(2)
	got := p.RawFlux(g, os)
	want := math.Pi * 4 * 4
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("raw flux=%v, want %v", got, want)
	}
}

// The aperture radius is scaled by the y-axis oversampling factor
// only. With unequal per-axis factors the normalization flux therefore
// picks up a factor osY/osX relative to the isotropic case; this test
// pins that behavior down.
func TestEffective_UnequalOversamplingRadius(t *testing.T) {
	g := grid.Uniform(44, 44, 1)
	r := 4.0

	equal := Aperture{Radius: r}.RawFlux(g, grid.PairOf(2))
	if want := math.Pi * r * r; math.Abs(equal-want) > 1e-6 {
		t.Errorf("equal oversampling: raw flux=%v, want %v", equal, want)
	}

	unequal := Aperture{Radius: r}.RawFlux(g, grid.Pair{Y: 2, X: 1})
	if want := 2 * math.Pi * r * r; math.Abs(unequal-want) > 1e-6 {
		t.Errorf("unequal oversampling: raw flux=%v, want %v", unequal, want)
	}
}

func TestEffective_OriginDefault(t *testing.T) {
	m, err := NewEffective(grid.Uniform(10, 10, 1), WithOversampling(grid.PairOf(2)),
		WithNormalization(false))
	if err != nil {
		t.Fatal(err)
	}
	x, y := m.Origin()
	if x != 2.25 || y != 2.25 {
		t.Errorf("origin=(%v, %v), want (2.25, 2.25)", x, y)
	}
}

func TestEffective_EvaluateNoOversamplingRescale(t *testing.T) {
	// Ramp grid: value = column index. The aperture-variant surface is
	// built over index/os coordinates, so f(x) = os*x in output units.
	n := 9
	g := grid.Zeros(n, n)
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			g.Set(iy, ix, float64(ix))
		}
	}
	m, err := NewEffective(g, WithOversampling(grid.PairOf(2)),
		WithNormalization(false), WithFlux(1), WithOrigin(0, 0), WithPassThroughFill())
	if err != nil {
		t.Fatal(err)
	}
	// Query offsets are not multiplied by the oversampling factor:
	// xi = (x - x_0) + x_origin, and the surface maps xi -> 2*xi.
	got := m.EvalWith(1.5, 0, 1, 0, 0)
	if math.Abs(got-3) > 1e-9 {
		t.Errorf("EvalWith=%v, want 3", got)
	}
}

func TestEffective_FillDomainInOutputUnits(t *testing.T) {
	m, err := NewEffective(grid.Uniform(9, 9, 1), WithOversampling(grid.PairOf(2)),
		WithNormalization(false), WithFlux(1), WithOrigin(0, 0), WithFillValue(-5))
	if err != nil {
		t.Fatal(err)
	}
	// Domain is [0, (nx-1)/osx] = [0, 4].
	if got := m.EvalWith(4, 0, 1, 0, 0); got == -5 {
		t.Error("in-domain boundary query returned fill")
	}
	if got := m.EvalWith(4.01, 0, 1, 0, 0); got != -5 {
		t.Errorf("out-of-domain query=%v, want fill -5", got)
	}
}

func TestEffective_CorrectionMutationRescalesGrid(t *testing.T) {
	m, err := NewEffective(ones(3), WithFlux(9))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Data().Sum(); math.Abs(got-1) > 1e-9 {
		t.Fatalf("normalized sum=%v, want 1", got)
	}
	if err := m.SetNormalizationCorrection(2); err != nil {
		t.Fatal(err)
	}
	// The grid now reflects the new correction exactly once: it sums
	// to 1/correction.
	if got := m.Data().Sum(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("rescaled sum=%v, want 1/2", got)
	}
	if m.Flux() != 18 {
		t.Errorf("flux=%v, want 18", m.Flux())
	}
	// The surface follows the rescaled grid.
	if got := m.EvalWith(1, 1, 1, 0, 0); math.Abs(got-m.Data().At(1, 1)) > 1e-9 {
		t.Errorf("surface stale after correction change: %v vs %v", got, m.Data().At(1, 1))
	}
}

func TestEffective_NormalizeIdempotent(t *testing.T) {
	m, err := NewEffective(ones(3), WithNormalization(false), WithFlux(1))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Data().Sum(); got != 9 {
		t.Fatalf("unnormalized sum=%v, want 9", got)
	}
	if err := m.Normalize(); err != nil {
		t.Fatal(err)
	}
	sum1 := m.Data().Sum()
	if math.Abs(sum1-1) > 1e-9 {
		t.Fatalf("normalized sum=%v, want 1", sum1)
	}
	// A second request must not rescale the grid again.
	if err := m.Normalize(); err != nil {
		t.Fatal(err)
	}
	if got := m.Data().Sum(); got != sum1 {
		t.Errorf("double normalization: sum %v -> %v", sum1, got)
	}
}

func TestEffective_ZeroGridFails(t *testing.T) {
	m, err := NewEffective(grid.Zeros(3, 3), silence())
	if err != nil {
		t.Fatalf("degenerate grid raised: %v", err)
	}
	if m.NormalizationStatus() != NormFailed {
		t.Errorf("status=%v, want failed", m.NormalizationStatus())
	}
	if got := m.Data().Sum(); got != 0 {
		t.Errorf("failed normalization touched the grid: sum=%v", got)
	}
	if rf, ok := m.RawFluxCached(); !ok || rf != 1 {
		t.Errorf("raw flux fallback=(%v, %v), want (1, true)", rf, ok)
	}
}

func TestAperture_DefaultRadius(t *testing.T) {
	if (Aperture{}).radius() != DefaultNormRadius {
		t.Error("zero radius does not default")
	}
	if (Aperture{Radius: 2}).radius() != 2 {
		t.Error("explicit radius ignored")
	}
}

func TestPolicy_Names(t *testing.T) {
	if (GlobalFlux{}).Name() != "global-flux" {
		t.Error("GlobalFlux name")
	}
	if (Aperture{}).Name() != "aperture" {
		t.Error("Aperture name")
	}
}
