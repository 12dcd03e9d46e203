package grid

import "fmt"

// Pair holds a per-axis integer quantity in (y, x) order, matching the
// row-major layout of Grid. It is used for oversampling factors, patch
// shapes, and border sizes.
type Pair struct {
	Y, X int
}

// PairOf broadcasts a scalar to both axes.
func PairOf(v int) Pair { return Pair{Y: v, X: v} }

// Validate checks that both components are at least min. The name is
// used in the error message.
func (p Pair) Validate(name string, min int) error {
	if p.Y < min || p.X < min {
		return fmt.Errorf("grid: %s components must be >= %d, got (%d, %d)", name, min, p.Y, p.X)
	}
	return nil
}

// Prod returns Y*X.
func (p Pair) Prod() int { return p.Y * p.X }

// IsZero reports whether both components are zero, the "unset" state
// for optional pair-valued settings.
func (p Pair) IsZero() bool { return p.Y == 0 && p.X == 0 }
