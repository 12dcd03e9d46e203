package psf

import (
	"fmt"
	"math"
	"testing"

	"github.com/san-kum/psfsim/internal/grid"
	"github.com/san-kum/psfsim/internal/spline"
)

func silence() Option {
	return WithWarnHandler(func(string, ...any) {})
}

func ones(n int) *grid.Grid { return grid.Uniform(n, n, 1) }

func TestNew_Validation(t *testing.T) {
	g := ones(3)
	if _, err := NewImageModel(nil); err != ErrNilGrid {
		t.Errorf("nil grid: got %v, want ErrNilGrid", err)
	}
	if _, err := NewImageModel(g, WithCorrection(0)); err != ErrCorrection {
		t.Errorf("zero correction: got %v, want ErrCorrection", err)
	}
	if _, err := NewImageModel(g, WithCorrection(-2)); err != ErrCorrection {
		t.Errorf("negative correction: got %v, want ErrCorrection", err)
	}
	if _, err := NewImageModel(g, WithOversampling(grid.Pair{Y: 0, X: 1})); err == nil {
		t.Error("non-positive oversampling accepted")
	}
	if _, err := NewImageModel(g, WithDegree(grid.Pair{Y: 3, X: -1})); err != spline.ErrDegree {
		t.Errorf("negative degree: got %v, want spline.ErrDegree", err)
	}
	if _, err := NewImageModel(g, WithSmoothing(-1)); err != spline.ErrSmoothing {
		t.Errorf("negative smoothing: got %v, want spline.ErrSmoothing", err)
	}
}

func TestNormalization_GlobalFlux(t *testing.T) {
	m, err := NewImageModel(ones(3), WithNormalization(true))
	if err != nil {
		t.Fatal(err)
	}
	if m.NormalizationStatus() != NormPerformed {
		t.Fatalf("status=%v, want performed", m.NormalizationStatus())
	}
	if got := m.NormalizationConstant(); math.Abs(got-1.0/9) > 1e-15 {
		t.Errorf("constant=%v, want 1/9", got)
	}
	if got := m.NormalizedData().Sum(); math.Abs(got-1) > 1e-12 {
		t.Errorf("normalized data sum=%v, want 1", got)
	}
	// The stored grid itself is untouched by the lazy policy.
	if got := m.Data().Sum(); got != 9 {
		t.Errorf("stored grid sum=%v, want 9", got)
	}
}

func TestNormalization_NotRequested(t *testing.T) {
	m, err := NewImageModel(ones(3), WithCorrection(2))
	if err != nil {
		t.Fatal(err)
	}
	if m.NormalizationStatus() != NormNotRequested {
		t.Fatalf("status=%v, want not-requested", m.NormalizationStatus())
	}
	if got := m.NormalizationConstant(); got != 0.5 {
		t.Errorf("constant=%v, want 1/correction=0.5", got)
	}
}

func TestNormalization_DefaultFluxIsRawFlux(t *testing.T) {
	m, err := NewImageModel(ones(3))
	if err != nil {
		t.Fatal(err)
	}
	if m.Flux() != 9 {
		t.Errorf("default flux=%v, want raw flux 9", m.Flux())
	}
	m2, err := NewImageModel(ones(3), WithFlux(5))
	if err != nil {
		t.Fatal(err)
	}
	if m2.Flux() != 5 {
		t.Errorf("explicit flux=%v, want 5", m2.Flux())
	}
}

func TestNormalization_RawFluxCachedOnce(t *testing.T) {
	// With an explicit flux the raw flux is not needed at construction.
	m, err := NewImageModel(ones(3), WithFlux(1))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.RawFluxCached(); ok {
		t.Fatal("raw flux computed eagerly despite explicit flux")
	}
	if err := m.Normalize(); err != nil {
		t.Fatal(err)
	}
	c1 := m.NormalizationConstant()
	rf1, ok := m.RawFluxCached()
	if !ok || rf1 != 9 {
		t.Fatalf("raw flux cache: got (%v, %v), want (9, true)", rf1, ok)
	}

	// Mutating the stored samples must not change a later
	// normalization: the cached raw flux is reused, never re-summed.
	m.Data().Scale(2)
	if err := m.Normalize(); err != nil {
		t.Fatal(err)
	}
	if c2 := m.NormalizationConstant(); c2 != c1 {
		t.Errorf("constant changed on re-normalization: %v -> %v", c1, c2)
	}
	if rf2, _ := m.RawFluxCached(); rf2 != rf1 {
		t.Errorf("raw flux re-summed: %v -> %v", rf1, rf2)
	}
}

func TestNormalization_ZeroGridFails(t *testing.T) {
	var warnings []string
	m, err := NewImageModel(grid.Zeros(3, 3),
		WithNormalization(true),
		WithWarnHandler(func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}))
	if err != nil {
		t.Fatalf("degenerate grid raised instead of warning: %v", err)
	}
	if m.NormalizationStatus() != NormFailed {
		t.Errorf("status=%v, want failed", m.NormalizationStatus())
	}
	if m.NormalizationConstant() != 1 {
		t.Errorf("constant=%v, want fallback 1", m.NormalizationConstant())
	}
	if len(warnings) != 1 {
		t.Errorf("warnings emitted: %d, want 1", len(warnings))
	}
}

func TestSetNormalizationCorrection(t *testing.T) {
	m, err := NewImageModel(ones(3), WithNormalization(true), WithCorrection(2), silence())
	if err != nil {
		t.Fatal(err)
	}
	oldFlux := m.Flux()
	if got := m.NormalizationConstant(); math.Abs(got-1.0/18) > 1e-15 {
		t.Fatalf("constant=%v, want 1/18", got)
	}

	if err := m.SetNormalizationCorrection(4); err != nil {
		t.Fatal(err)
	}
	if got := m.NormalizationConstant(); math.Abs(got-1.0/36) > 1e-15 {
		t.Errorf("constant=%v, want 1/36", got)
	}
	if want := oldFlux * 4 / 2; m.Flux() != want {
		t.Errorf("flux=%v, want rescaled %v", m.Flux(), want)
	}
	if m.NormalizationCorrection() != 4 {
		t.Errorf("correction=%v, want 4", m.NormalizationCorrection())
	}

	// An invalid correction mutates nothing.
	if err := m.SetNormalizationCorrection(0); err != ErrCorrection {
		t.Fatalf("zero correction: got %v, want ErrCorrection", err)
	}
	if m.NormalizationCorrection() != 4 || math.Abs(m.NormalizationConstant()-1.0/36) > 1e-15 {
		t.Error("failed mutation left inconsistent state")
	}
}

func TestSetNormalizationCorrection_NotRequested(t *testing.T) {
	m, err := NewImageModel(ones(3), WithFlux(10))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetNormalizationCorrection(5); err != nil {
		t.Fatal(err)
	}
	if got := m.NormalizationConstant(); got != 0.2 {
		t.Errorf("constant=%v, want 1/5", got)
	}
	if m.Flux() != 50 {
		t.Errorf("flux=%v, want 50", m.Flux())
	}
}

func TestOrigin(t *testing.T) {
	m, err := NewImageModel(grid.Uniform(5, 7, 1))
	if err != nil {
		t.Fatal(err)
	}
	x, y := m.Origin()
	if x != 3 || y != 2 {
		t.Errorf("default origin=(%v, %v), want (3, 2)", x, y)
	}

	x0, y0 := m.Position()
	flux := m.Flux()
	m.SetOrigin(1.5, 2.5)
	if gx, gy := m.Origin(); gx != 1.5 || gy != 2.5 {
		t.Errorf("SetOrigin: got (%v, %v)", gx, gy)
	}
	if nx0, ny0 := m.Position(); nx0 != x0 || ny0 != y0 || m.Flux() != flux {
		t.Error("SetOrigin modified fit parameters")
	}
	m.ResetOrigin()
	if gx, gy := m.Origin(); gx != 3 || gy != 2 {
		t.Errorf("ResetOrigin: got (%v, %v)", gx, gy)
	}
}

// A ramp grid (value = column index) has an exactly linear surface, so
// the evaluate transform is directly observable in the output.
func rampModel(t *testing.T, os grid.Pair, opts ...Option) *Model {
	t.Helper()
	n := 7
	g := grid.Zeros(n, n)
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			g.Set(iy, ix, float64(ix))
		}
	}
	opts = append([]Option{WithOversampling(os), WithFlux(1), WithPassThroughFill()}, opts...)
	m, err := NewImageModel(g, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestEvaluate_OversamplingTransform(t *testing.T) {
	m := rampModel(t, grid.Pair{Y: 2, X: 2})
	xOrigin, _ := m.Origin()

	for _, tc := range []struct {
		x, x0 float64
	}{
		{1, 0}, {0.25, 0.5}, {-1, -2},
	} {
		// Surface value equals the transformed x index:
		// xi = ox*(x-x_0) + x_origin.
		want := 2*(tc.x-tc.x0) + xOrigin
		got := m.EvalWith(tc.x, 0, 1, tc.x0, 0)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("EvalWith(x=%v, x0=%v)=%v, want %v", tc.x, tc.x0, got, want)
		}
	}

	// With oversampling disabled the factor drops out.
	out := m.Evaluate([]float64{1}, []float64{0}, nil, 1, 0, 0, false)
	want := 1 + xOrigin
	if math.Abs(out[0]-want) > 1e-9 {
		t.Errorf("no-oversampling Evaluate=%v, want %v", out[0], want)
	}
}

func TestEvaluate_FluxAndConstantScaling(t *testing.T) {
	m, err := NewImageModel(ones(3), WithNormalization(true), silence())
	if err != nil {
		t.Fatal(err)
	}
	// Surface is 1 everywhere, constant is 1/9: value = flux/9.
	got := m.EvalWith(0, 0, 18, 0, 0)
	if math.Abs(got-2) > 1e-12 {
		t.Errorf("EvalWith flux scaling: got %v, want 2", got)
	}
}

func TestEvaluate_FillValue(t *testing.T) {
	m, err := NewImageModel(ones(3), WithFillValue(-99), WithFlux(1))
	if err != nil {
		t.Fatal(err)
	}
	// x=10 maps to xi=11, outside [0, 2].
	if got := m.EvalWith(10, 0, 1, 0, 0); got != -99 {
		t.Errorf("out-of-domain value=%v, want fill -99", got)
	}
	// In-domain queries are unaffected.
	if got := m.EvalWith(0, 0, 1, 0, 0); got == -99 {
		t.Error("in-domain query returned the fill value")
	}

	m.SetFillValue(7)
	if got := m.EvalWith(10, 0, 1, 0, 0); got != 7 {
		t.Errorf("after SetFillValue: got %v, want 7", got)
	}

	m.DisableFill()
	if got := m.EvalWith(10, 0, 1, 0, 0); got == 7 || got == -99 {
		t.Errorf("pass-through fill returned a fill value: %v", got)
	}
}

func TestEvaluate_CurrentParams(t *testing.T) {
	m := rampModel(t, grid.PairOf(1))
	m.SetPosition(2, 0)
	m.SetFlux(1)
	xOrigin, _ := m.Origin()
	want := (1.0 - 2.0) + xOrigin
	if got := m.Eval(1, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("Eval with current params: got %v, want %v", got, want)
	}
}

func TestBoundingBox(t *testing.T) {
	m, err := NewImageModel(grid.Uniform(25, 25, 1))
	if err != nil {
		t.Fatal(err)
	}
	if bb := m.BoundingBox(); bb != (grid.Pair{Y: 24, X: 24}) {
		t.Errorf("bounding box=%+v, want (24, 24)", bb)
	}
	m4, err := NewImageModel(grid.Uniform(25, 25, 1), WithOversampling(grid.PairOf(4)))
	if err != nil {
		t.Fatal(err)
	}
	if bb := m4.BoundingBox(); bb != (grid.Pair{Y: 6, X: 6}) {
		t.Errorf("oversampled bounding box=%+v, want (6, 6)", bb)
	}
}

func TestParams(t *testing.T) {
	m, err := NewImageModel(ones(3))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.ParamNames(); got[0] != "x_0" || got[1] != "y_0" || got[2] != "flux" {
		t.Errorf("default param names: %v", got)
	}
	if err := m.SetParam("x_0", 4); err != nil {
		t.Fatal(err)
	}
	if x0, _ := m.Position(); x0 != 4 {
		t.Errorf("SetParam x_0: got %v", x0)
	}
	if err := m.SetParam("sigma", 1); err == nil {
		t.Error("unknown parameter accepted")
	}

	named, err := NewImageModel(ones(3), WithParamNames("xc", "yc", "amp"))
	if err != nil {
		t.Fatal(err)
	}
	if err := named.SetParam("amp", 3); err != nil {
		t.Fatal(err)
	}
	if named.Flux() != 3 {
		t.Errorf("custom flux name: got %v", named.Flux())
	}
	if v, err := named.Param("xc"); err != nil || v != 0 {
		t.Errorf("Param(xc)=(%v, %v)", v, err)
	}
}

func TestClone_Independent(t *testing.T) {
	m, err := NewImageModel(ones(3), WithNormalization(true), silence())
	if err != nil {
		t.Fatal(err)
	}
	c := m.Clone()
	c.SetFlux(123)
	c.SetPosition(9, 9)
	if m.Flux() == 123 {
		t.Error("clone shares flux state")
	}
	if err := c.SetNormalizationCorrection(3); err != nil {
		t.Fatal(err)
	}
	if m.NormalizationCorrection() == 3 {
		t.Error("clone shares normalization state")
	}
}

func TestComputeInterpolator_Recompute(t *testing.T) {
	m := rampModel(t, grid.PairOf(1))
	if err := m.ComputeInterpolator(grid.PairOf(1), 0); err != nil {
		t.Fatal(err)
	}
	xOrigin, _ := m.Origin()
	want := 0.5 + xOrigin
	if got := m.EvalWith(0.5, 0, 1, 0, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("linear surface: got %v, want %v", got, want)
	}
	if err := m.ComputeInterpolator(grid.Pair{Y: -3, X: 3}, 0); err != spline.ErrDegree {
		t.Errorf("negative degree: got %v, want ErrDegree", err)
	}
}

func TestNormStatusString(t *testing.T) {
	if NormPerformed.String() != "performed" || NormFailed.String() != "failed" ||
		NormNotRequested.String() != "not-requested" {
		t.Error("NormStatus strings")
	}
}
