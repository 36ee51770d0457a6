package domain

import "errors"

var (
	// ErrNotFound marks a referenced product, profile or recommendation
	// as absent. The resolver treats it as a fall-through signal, never
	// as a caller-visible failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest marks a caller contract violation (e.g. missing
	// shop). Rejected synchronously, no partial work.
	ErrInvalidRequest = errors.New("invalid request")
)
