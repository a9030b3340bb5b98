package media

import "log/slog"

// DefaultMaxIndexSize is the default limit on the index block length (64MB).
const DefaultMaxIndexSize = 64 << 20

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for debug output.
// If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger
	}
}

// WithMaxIndexSize limits the declared index block length.
// Set limit to 0 to disable the limit.
func WithMaxIndexSize(limit uint64) Option {
	return func(idx *Index) {
		idx.maxIndexSize = limit
	}
}
