package media

import "github.com/zbirow/yuffin/internal/yuftype"

// Sentinel errors re-exported from internal/yuftype.
var (
	// ErrInvalidSignature is returned when the container does not start with "YUFFIN".
	ErrInvalidSignature = yuftype.ErrInvalidSignature

	// ErrCorruptIndex is returned when the header or index block is malformed.
	ErrCorruptIndex = yuftype.ErrCorruptIndex

	// ErrTruncatedAsset is returned when an asset extends past the end of the source.
	ErrTruncatedAsset = yuftype.ErrTruncatedAsset

	// ErrOutOfBounds is returned when a range does not fit in the source.
	ErrOutOfBounds = yuftype.ErrOutOfBounds

	// ErrUnsupportedAsset is returned when an operation does not apply to an asset's kind.
	ErrUnsupportedAsset = yuftype.ErrUnsupportedAsset
)

// ErrSizeOverflow is returned when the index block exceeds the configured limit.
var ErrSizeOverflow = yuftype.ErrSizeOverflow
