package repository

import "errors"

var (
	// ErrNotFound is returned when a requested document or collection doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a query or document fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedOperator is returned when a condition uses an operator the store can't evaluate
	ErrUnsupportedOperator = errors.New("unsupported query operator")
)
