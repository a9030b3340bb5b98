package yuffin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/internal/yuftype"
	"github.com/zbirow/yuffin/media"
)

// ByteSource provides random access to container bytes.
type ByteSource = yuftype.ByteSource

// SignatureSize is the number of bytes needed to tell the formats apart.
const SignatureSize = 6

// Format identifies a container format.
type Format uint8

const (
	// FormatUnknown is a source matching neither signature.
	FormatUnknown Format = iota

	// FormatMedia is a media container ("YUFFIN").
	FormatMedia

	// FormatImageArchive is an image archive ("Yuffin").
	FormatImageArchive
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatMedia:
		return "media"
	case FormatImageArchive:
		return "image-archive"
	default:
		return "unknown"
	}
}

// DetectFormat identifies the format from the leading bytes of a source.
// The signatures differ only in case and are compared exactly.
func DetectFormat(magic []byte) Format {
	switch {
	case media.MatchSignature(magic):
		return FormatMedia
	case images.MatchSignature(magic):
		return FormatImageArchive
	default:
		return FormatUnknown
	}
}

// Sniff reads the signature of src and returns its format.
// Unknown sources fail with ErrInvalidSignature.
func Sniff(ctx context.Context, src ByteSource) (Format, error) {
	n := min(int64(SignatureSize), src.Size())
	magic, err := yuftype.ReadRange(ctx, src, 0, n)
	if err != nil {
		return FormatUnknown, fmt.Errorf("read signature: %w", err)
	}
	f := DetectFormat(magic)
	if f == FormatUnknown {
		return f, fmt.Errorf("%w: got %q", ErrInvalidSignature, magic)
	}
	return f, nil
}

// Container is an opened source of either format.
// Exactly one of Media and Images is set.
type Container struct {
	Format Format
	Media  *media.Index
	Images *images.Index
}

type openConfig struct {
	logger     *slog.Logger
	mediaOpts  []media.Option
	imagesOpts []images.Option
}

// Option configures Open.
type Option func(*openConfig)

// WithLogger sets the logger passed to the format readers.
func WithLogger(logger *slog.Logger) Option {
	return func(c *openConfig) {
		c.logger = logger
	}
}

// WithMediaOptions sets options for media containers.
func WithMediaOptions(opts ...media.Option) Option {
	return func(c *openConfig) {
		c.mediaOpts = append(c.mediaOpts, opts...)
	}
}

// WithImageOptions sets options for image archives.
func WithImageOptions(opts ...images.Option) Option {
	return func(c *openConfig) {
		c.imagesOpts = append(c.imagesOpts, opts...)
	}
}

// Open sniffs src and decodes it with the matching reader. The signature is
// checked before any index parsing.
func Open(ctx context.Context, src ByteSource, opts ...Option) (*Container, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := Sniff(ctx, src)
	if err != nil {
		return nil, err
	}
	c := &Container{Format: f}
	switch f {
	case FormatMedia:
		mopts := append([]media.Option{media.WithLogger(cfg.logger)}, cfg.mediaOpts...)
		c.Media, err = media.Open(ctx, src, mopts...)
	case FormatImageArchive:
		iopts := append([]images.Option{images.WithLogger(cfg.logger)}, cfg.imagesOpts...)
		c.Images, err = images.Open(ctx, src, iopts...)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
