package images

import (
	"log/slog"
	"regexp"
)

const (
	// DefaultMaxImageSize is the default maximum size of a single image (256MB).
	DefaultMaxImageSize = 256 << 20
)

// DefaultChapterPattern matches directory names that start with "chapter_", ignoring case.
var DefaultChapterPattern = regexp.MustCompile(`(?i)^chapter_`)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for debug output.
// If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger
	}
}

// WithMaxImageSize limits the declared size of a single image.
// Set limit to 0 to disable the limit.
func WithMaxImageSize(limit uint32) Option {
	return func(idx *Index) {
		idx.maxImageSize = limit
	}
}

// WithChapterPattern overrides the pattern that marks a directory as a chapter.
// A nil pattern restores the default.
func WithChapterPattern(re *regexp.Regexp) Option {
	return func(idx *Index) {
		if re == nil {
			re = DefaultChapterPattern
		}
		idx.chapterPattern = re
	}
}
