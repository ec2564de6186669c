package engine

import (
	"errors"
	"fmt"
)

// NotFoundError reports a state change against a cart id that does not
// exist in the registry. It is the only engine error surfaced to callers;
// storage faults are logged and swallowed.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cart %d not found", e.ID)
}

// IsNotFound returns true if the error is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
