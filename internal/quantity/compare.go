package quantity

import (
	"fmt"
	"math/big"
)

// Cmp compares two quantities of the same dimension, returning -1, 0 or 1.
// When both operands are exact the comparison is exact and eps is ignored.
// Otherwise eps is a relative tolerance: the operands count as equal when
// their difference is within eps of the larger magnitude. A nil eps forces
// exact comparison regardless.
func Cmp(a, b Quantity, eps *big.Rat) (int, error) {
	if !a.Dim.Equal(b.Dim) {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrDimensionMismatch, a.Dim, b.Dim)
	}
	if (a.Exact && b.Exact) || eps == nil {
		return a.Mag.Cmp(b.Mag), nil
	}
	diff := new(big.Rat).Sub(a.Mag, b.Mag)
	if diff.Sign() == 0 {
		return 0, nil
	}
	scale := new(big.Rat).Abs(a.Mag)
	if absB := new(big.Rat).Abs(b.Mag); absB.Cmp(scale) > 0 {
		scale = absB
	}
	tol := new(big.Rat).Mul(eps, scale)
	if new(big.Rat).Abs(diff).Cmp(tol) <= 0 {
		return 0, nil
	}
	return diff.Sign(), nil
}

// Equal reports whether a and b compare equal under Cmp.
func Equal(a, b Quantity, eps *big.Rat) (bool, error) {
	c, err := Cmp(a, b, eps)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
