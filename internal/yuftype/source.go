package yuftype

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ByteSource provides random access to container bytes.
//
// Implementations exist for local files, in-memory data, sub-ranges of other
// sources and HTTP range requests. SourceID must return a stable identifier
// for the underlying content.
type ByteSource interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}

// CheckRange reports whether [off, off+length) lies within a source of the given size.
func CheckRange(off, length, size int64) error {
	if off < 0 || length < 0 {
		return fmt.Errorf("%w: offset %d length %d", ErrOutOfBounds, off, length)
	}
	if off > size || length > size-off {
		return fmt.Errorf("%w: [%d, %d+%d) exceeds source size %d", ErrOutOfBounds, off, off, length, size)
	}
	return nil
}

// ReadRange reads exactly length bytes starting at off.
// Ranges that do not fit in the source fail with ErrOutOfBounds instead of
// being truncated.
func ReadRange(ctx context.Context, src ByteSource, off, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckRange(off, length, src.Size()); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	n, err := src.ReadAt(buf, off)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read range [%d, %d+%d): short read (%d bytes): %w", off, off, length, n, err)
}

// ReadText reads length bytes at off and returns them as text.
// Invalid UTF-8 sequences are replaced with U+FFFD.
func ReadText(ctx context.Context, src ByteSource, off, length int64) (string, error) {
	data, err := ReadRange(ctx, src, off, length)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
