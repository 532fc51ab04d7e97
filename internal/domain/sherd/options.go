package sherd

const (
	// DefaultPageSize bounds every query.
	DefaultPageSize = 500
	// DefaultMaxFilterValues is the values-per-predicate ceiling of "in".
	DefaultMaxFilterValues = 10
)

// Options configures the query engine. Zero values take the defaults.
type Options struct {
	PageSize        int
	MaxFilterValues int
	Recorder        FetchRecorder
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxFilterValues <= 0 {
		o.MaxFilterValues = DefaultMaxFilterValues
	}
	return o
}
