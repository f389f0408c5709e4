package quantity

import "errors"

// Sentinel errors for quantity arithmetic. Callers wrap these with context
// and match with errors.Is.
var (
	// ErrDimensionMismatch is returned when an operation requires matching
	// dimensions and the operands disagree, e.g. adding Meters to Seconds.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrDivisionByZero is returned on division by an exactly-zero quantity.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidExponent is returned when a power's exponent is not an
	// exact dimensionless rational of reasonable size.
	ErrInvalidExponent = errors.New("invalid exponent")

	// ErrNoRealRoot is returned when taking an even root of a negative
	// quantity.
	ErrNoRealRoot = errors.New("no real root")
)
