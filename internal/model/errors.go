package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced timespan id does not exist.
var ErrNotFound = errors.New("timespan not found")

// ValidationError rejects a timespan that breaks an invariant. Nothing is
// written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
