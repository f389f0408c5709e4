package kb

import "errors"

var (
	// ErrUnknownEntityOrClass is returned when a name resolves to neither a
	// declared entity nor a declared entity class.
	ErrUnknownEntityOrClass = errors.New("unknown entity or class")

	// ErrTypeConstraintViolation is returned when a property's dimension
	// conflicts with an existing constraint or stored value.
	ErrTypeConstraintViolation = errors.New("type constraint violation")

	// ErrDuplicateName is returned when an entity or class reuses a name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnboundProperty is returned when a property that must hold a value
	// holds none.
	ErrUnboundProperty = errors.New("unbound property")
)
