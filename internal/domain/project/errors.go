package project

import "errors"

var (
	// ErrFetch indicates the project list could not be read from the store.
	ErrFetch = errors.New("failed to fetch projects")
)
