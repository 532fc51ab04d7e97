package session

import "errors"

var (
	// ErrSuperseded indicates a newer dispatch replaced this one before it
	// settled. Its response was discarded.
	ErrSuperseded = errors.New("request superseded by a newer one")
	// ErrNoSelection indicates a detail view was requested with nothing loaded.
	ErrNoSelection = errors.New("no rows loaded")
	// ErrInvalidInput indicates invalid viewer input.
	ErrInvalidInput = errors.New("invalid viewer input")
)
