package hierarchy

// Options configures the aggregator.
type Options struct {
	// Parallel walks study areas concurrently. Row order stays in study
	// area order and totals are unchanged.
	Parallel bool
	// Recorder receives one observation per aggregation. Optional.
	Recorder FetchRecorder
}
