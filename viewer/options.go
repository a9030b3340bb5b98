package viewer

import (
	"log/slog"

	"github.com/zbirow/yuffin/handle"
	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/view"
)

// Scopes of the handles owned by the viewer components.
const (
	ScopeTiles    handle.Scope = "tiles"
	ScopeLightbox handle.Scope = "lightbox"
	ScopePlayer   handle.Scope = "player"
)

// DefaultConcurrency is the default number of tiles resolved in parallel.
const DefaultConcurrency = 8

type config struct {
	concurrency int
	pageSize    int
	readBudget  int64
	logger      *slog.Logger
	onRelease   func(*handle.Handle)
	imageOpts   []images.Option
}

func newConfig(opts []Option) config {
	cfg := config{
		concurrency: DefaultConcurrency,
		pageSize:    view.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func (c config) managerOptions() []handle.Option {
	return []handle.Option{handle.WithLogger(c.logger), handle.WithOnRelease(c.onRelease)}
}

// Option configures a Gallery or Player.
type Option func(*config)

// WithConcurrency sets how many tiles are resolved in parallel.
// Values below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithPageSize sets the number of grid tiles per page.
func WithPageSize(n int) Option {
	return func(c *config) {
		c.pageSize = n
	}
}

// WithReadBudget caps the image bytes held in memory by tiles that are
// being resolved at once. Zero disables the cap.
func WithReadBudget(bytes int64) Option {
	return func(c *config) {
		c.readBudget = bytes
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithOnRelease sets a hook called once for every released handle.
func WithOnRelease(fn func(*handle.Handle)) Option {
	return func(c *config) {
		c.onRelease = fn
	}
}

// WithImageOptions sets the options used to open nested image archives.
func WithImageOptions(opts ...images.Option) Option {
	return func(c *config) {
		c.imageOpts = opts
	}
}
