package sherd

// ValidateFilter checks the filter against the values-per-predicate ceiling.
func ValidateFilter(f Filter, maxValues int) error {
	if maxValues <= 0 {
		maxValues = DefaultMaxFilterValues
	}
	if len(f.Diagnostics) > maxValues {
		return &FilterLimitError{Max: maxValues, Got: len(f.Diagnostics)}
	}
	return nil
}
