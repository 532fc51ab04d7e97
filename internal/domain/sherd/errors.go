package sherd

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyDiagnostics indicates the diagnostic predicate exceeds the
	// backend's values-per-predicate ceiling. No request is issued.
	ErrTooManyDiagnostics = errors.New("too many diagnostic types")
	// ErrFetch indicates the store failed to answer the query.
	ErrFetch = errors.New("failed to fetch data")
	// ErrRecordNotFound indicates no row of the current result has the id.
	ErrRecordNotFound = errors.New("sherd not found")
)

// FilterLimitError reports a diagnostic predicate over the ceiling. It
// matches ErrTooManyDiagnostics.
type FilterLimitError struct {
	Max int
	Got int
}

func (e *FilterLimitError) Error() string {
	return fmt.Sprintf("%s: cannot filter by more than %d diagnostic types at once (got %d)",
		ErrTooManyDiagnostics, e.Max, e.Got)
}

func (e *FilterLimitError) Unwrap() error {
	return ErrTooManyDiagnostics
}
