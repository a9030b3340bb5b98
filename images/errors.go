package images

import "github.com/zbirow/yuffin/internal/yuftype"

// Sentinel errors re-exported from internal/yuftype.
var (
	// ErrInvalidSignature is returned when the archive does not start with "Yuffin".
	ErrInvalidSignature = yuftype.ErrInvalidSignature

	// ErrCorruptIndex is returned when the header or file index is malformed.
	ErrCorruptIndex = yuftype.ErrCorruptIndex

	// ErrCorruptDirectoryTable is returned when the directory table is malformed.
	ErrCorruptDirectoryTable = yuftype.ErrCorruptDirectoryTable

	// ErrTruncatedAsset is returned when an image record extends past the end of the source.
	ErrTruncatedAsset = yuftype.ErrTruncatedAsset

	// ErrUnsupportedAsset is returned by Probe for data that is not a known image format.
	ErrUnsupportedAsset = yuftype.ErrUnsupportedAsset

	// ErrSizeOverflow is returned when a declared image size exceeds the configured limit.
	ErrSizeOverflow = yuftype.ErrSizeOverflow
)
