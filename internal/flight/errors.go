package flight

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a flight is absent from the store(s) that an
// operation consults. For ingestion and archival, which look at hot storage
// only, this covers both "never existed" and "already archived" - the two
// are indistinguishable at this layer.
var ErrNotFound = errors.New("flight not found")

// ErrStoreUnavailable is returned when the storage backend cannot be
// reached or fails an operation. It is fatal to the current call; retry
// policy, if any, belongs to the caller.
var ErrStoreUnavailable = errors.New("store unavailable")

// ValidationError reports a malformed or missing input field. It is raised
// before any lifecycle logic runs and never reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
