package sentinel

import "errors"

// Store-level errors. Stores return these, optionally wrapped, and the
// service translates them into domain errors exactly once.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
