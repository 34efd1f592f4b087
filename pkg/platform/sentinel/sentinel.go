// Package sentinel holds the store-level facts that services translate into
// domain errors. Stores wrap these; they never return domain-errors codes.
package sentinel

import "errors"

var (
	// ErrNotFound: the family, group, membership row or notification does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a concurrent unit of work changed the row first.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed: a unique key is taken, e.g. a second membership row
	// for the same (family, user).
	ErrAlreadyUsed = errors.New("already used")
)
