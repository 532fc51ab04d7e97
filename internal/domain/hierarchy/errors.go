package hierarchy

import "errors"

var (
	// ErrFetch indicates a level of the project tree could not be enumerated.
	ErrFetch = errors.New("failed to fetch project data")
	// ErrRowNotFound indicates no row of the current result has the id.
	ErrRowNotFound = errors.New("row not found")
)
