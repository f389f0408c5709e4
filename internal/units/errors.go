package units

import "errors"

var (
	// ErrUnknownUnit is returned when a name resolves to no declared unit.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrUnknownClass is returned when a base unit names an undeclared
	// unit class.
	ErrUnknownClass = errors.New("unknown unit class")

	// ErrUnresolvedUnit is returned when a label references a name that
	// cannot be resolved to a unit, label or unit class.
	ErrUnresolvedUnit = errors.New("unresolved name in label")

	// ErrCyclicDefinition is returned when label resolution re-enters a
	// label already being resolved.
	ErrCyclicDefinition = errors.New("cyclic label definition")

	// ErrDuplicateName is returned when a declaration would reuse a name
	// already taken by a class, unit, unit alias, prefixed variant or label.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrInvalidLabel is returned when a label expression mixes dimensions
	// and quantities in a way that has no meaning, e.g. Length + 2.
	ErrInvalidLabel = errors.New("invalid label expression")

	// ErrInvalidScale is returned when a derived unit's value is zero or
	// negative.
	ErrInvalidScale = errors.New("unit scale must be positive")
)
