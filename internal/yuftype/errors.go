package yuftype

import "errors"

// Sentinel errors for container operations.
var (
	// ErrInvalidSignature is returned when the magic bytes of a container do not match.
	ErrInvalidSignature = errors.New("yuffin: invalid signature")

	// ErrCorruptIndex is returned when a container header or index cannot be decoded.
	ErrCorruptIndex = errors.New("yuffin: corrupt index")

	// ErrCorruptDirectoryTable is returned when an image archive directory table is malformed.
	ErrCorruptDirectoryTable = errors.New("yuffin: corrupt directory table")

	// ErrTruncatedAsset is returned when an asset extends past the end of its source.
	ErrTruncatedAsset = errors.New("yuffin: truncated asset")

	// ErrOutOfBounds is returned when a requested byte range lies outside the source.
	ErrOutOfBounds = errors.New("yuffin: range out of bounds")

	// ErrUnsupportedAsset is returned when an asset kind cannot be handled.
	ErrUnsupportedAsset = errors.New("yuffin: unsupported asset")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("yuffin: size overflow")
)
