package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotLoaded is returned when inference is requested before the
	// model handle finished loading, or after a failed load.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrEngineClosed is returned once the engine has been shut down.
	ErrEngineClosed = errors.New("engine closed")
)

// Error wraps engine failures with the operation that produced them
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("inference: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("inference: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
