package laws

import "errors"

var (
	// ErrNoApplicableLaw is returned when no declared law can produce the
	// requested property for the entity's classes.
	ErrNoApplicableLaw = errors.New("no applicable law")

	// ErrAmbiguousLaw is returned when several laws could produce the
	// requested property and none was named explicitly.
	ErrAmbiguousLaw = errors.New("ambiguous law")

	// ErrAmbiguousBinding is returned when a find statement's bindings do
	// not pin the law's quantified variable to exactly one entity.
	ErrAmbiguousBinding = errors.New("ambiguous binding")

	// ErrUnsolvableEquation is returned when the unknown cannot be isolated
	// algebraically: it appears zero or several times, or sits in an
	// exponent.
	ErrUnsolvableEquation = errors.New("unsolvable equation")

	// ErrDuplicateName is returned when a law reuses an existing law name.
	ErrDuplicateName = errors.New("duplicate law name")
)
