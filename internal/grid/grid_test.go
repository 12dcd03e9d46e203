package grid

import (
	"math"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil); err != ErrEmpty {
		t.Errorf("empty input: got %v, want ErrEmpty", err)
	}
	if _, err := New([][]float64{{}}); err != ErrEmpty {
		t.Errorf("empty row: got %v, want ErrEmpty", err)
	}
	if _, err := New([][]float64{{1, 2}, {3}}); err != ErrRagged {
		t.Errorf("ragged rows: got %v, want ErrRagged", err)
	}
	if _, err := New([][]float64{{1, math.NaN()}}); err != ErrNotFinite {
		t.Errorf("NaN sample: got %v, want ErrNotFinite", err)
	}
	if _, err := New([][]float64{{1, math.Inf(1)}}); err != ErrNotFinite {
		t.Errorf("Inf sample: got %v, want ErrNotFinite", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	g, err := New(rows)
	if err != nil {
		t.Fatal(err)
	}
	rows[0][0] = 99
	if g.At(0, 0) != 1 {
		t.Errorf("grid aliases input: At(0,0)=%v", g.At(0, 0))
	}
}

func TestGrid_Accessors(t *testing.T) {
	g, err := New([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if g.NY() != 2 || g.NX() != 3 {
		t.Fatalf("shape: got (%d, %d), want (2, 3)", g.NY(), g.NX())
	}
	if g.At(1, 2) != 6 {
		t.Errorf("At(1,2)=%v, want 6", g.At(1, 2))
	}
	if g.Sum() != 21 {
		t.Errorf("Sum=%v, want 21", g.Sum())
	}
	if g.Max() != 6 {
		t.Errorf("Max=%v, want 6", g.Max())
	}
	g.Scale(2)
	if g.At(0, 1) != 4 {
		t.Errorf("after Scale(2): At(0,1)=%v, want 4", g.At(0, 1))
	}
}

func TestGrid_AddGrid(t *testing.T) {
	a := Uniform(2, 2, 1)
	b := Uniform(2, 2, 2)
	if err := a.AddGrid(b); err != nil {
		t.Fatal(err)
	}
	if a.At(1, 1) != 3 {
		t.Errorf("AddGrid: got %v, want 3", a.At(1, 1))
	}
	if err := a.AddGrid(Zeros(3, 2)); err == nil {
		t.Error("shape mismatch accepted")
	}
}

func TestGrid_Clone(t *testing.T) {
	g := Uniform(2, 2, 5)
	c := g.Clone()
	c.Set(0, 0, -1)
	if g.At(0, 0) != 5 {
		t.Error("Clone shares backing storage")
	}
}

func TestFromFlat(t *testing.T) {
	g, err := FromFlat(2, 2, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if g.At(1, 0) != 3 {
		t.Errorf("FromFlat layout: At(1,0)=%v, want 3", g.At(1, 0))
	}
	if _, err := FromFlat(2, 2, []float64{1, 2, 3}); err == nil {
		t.Error("length mismatch accepted")
	}
	if _, err := FromFlat(0, 2, nil); err != ErrEmpty {
		t.Errorf("zero shape: got %v, want ErrEmpty", err)
	}
}

func TestPair(t *testing.T) {
	p := PairOf(4)
	if p.Y != 4 || p.X != 4 {
		t.Errorf("PairOf broadcast: got %+v", p)
	}
	if err := (Pair{Y: 1, X: 0}).Validate("oversampling", 1); err == nil {
		t.Error("sub-minimum pair accepted")
	}
	if err := (Pair{Y: 2, X: 3}).Validate("oversampling", 1); err != nil {
		t.Errorf("valid pair rejected: %v", err)
	}
	if (Pair{}).IsZero() != true {
		t.Error("zero pair not reported as zero")
	}
	if (Pair{Y: 2, X: 3}).Prod() != 6 {
		t.Error("Prod")
	}
}
