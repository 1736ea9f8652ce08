package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates the caller presented no usable identity.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUnauthorized indicates the caller does not own the target task.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound indicates no task exists under the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrStoreUnavailable indicates a transient storage failure; the same
	// operation is safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a malformed input field. It is correctable by the
// caller and safe to resubmit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
