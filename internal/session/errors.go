package session

import (
	"errors"
	"fmt"

	"github.com/joshua-maros/ackulator/internal/types"
)

var (
	// ErrInvalidExpression marks an expression that combines kinds no
	// operator accepts, like adding an entity to a quantity or summing two
	// dimensions.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrCheckFailed escalates a failing check when the session is
	// configured to treat failures as fatal.
	ErrCheckFailed = errors.New("check failed")
)

// StatementError tags an execution error with the position of the statement
// that raised it, for external reporting.
type StatementError struct {
	At  types.Pos
	Err error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %v", e.At, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }
