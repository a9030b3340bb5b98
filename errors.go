package yuffin

import "github.com/zbirow/yuffin/internal/yuftype"

// Errors re-exported from internal/yuftype.
var (
	// ErrInvalidSignature is returned when a source starts with neither known signature.
	ErrInvalidSignature = yuftype.ErrInvalidSignature

	// ErrCorruptIndex is returned when a header or index is malformed.
	ErrCorruptIndex = yuftype.ErrCorruptIndex

	// ErrCorruptDirectoryTable is returned when an image archive directory table is malformed.
	ErrCorruptDirectoryTable = yuftype.ErrCorruptDirectoryTable

	// ErrTruncatedAsset is returned when an asset extends past the end of its source.
	ErrTruncatedAsset = yuftype.ErrTruncatedAsset

	// ErrOutOfBounds is returned when a range does not fit in its source.
	ErrOutOfBounds = yuftype.ErrOutOfBounds

	// ErrUnsupportedAsset is returned when an asset cannot be handled.
	ErrUnsupportedAsset = yuftype.ErrUnsupportedAsset

	// ErrSizeOverflow is returned when a size exceeds supported limits.
	ErrSizeOverflow = yuftype.ErrSizeOverflow
)
