package view

import "errors"

var (
	// ErrInvalidFilter is returned when a filter names a directory that does not exist.
	ErrInvalidFilter = errors.New("view: invalid directory filter")

	// ErrEmptySequence is returned when opening a lightbox over no images.
	ErrEmptySequence = errors.New("view: empty sequence")

	// ErrOutOfRange is returned when a lightbox position is outside the sequence.
	ErrOutOfRange = errors.New("view: position out of range")
)
