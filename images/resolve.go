package images

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zbirow/yuffin/internal/yuftype"
)

// Record describes where one image's bytes live.
type Record struct {
	// DataOffset is the absolute offset of the image bytes, just past the sub-header.
	DataOffset int64

	// Size is the image size declared by the sub-header.
	Size uint32

	// Reserved holds the sub-header's first four bytes, uninterpreted.
	Reserved uint32
}

// Resolved is the content of one image.
type Resolved struct {
	Record

	Data []byte
}

// Locate reads the 8-byte sub-header of img and validates that the whole
// record fits in the source. It fails with ErrTruncatedAsset otherwise.
func (idx *Index) Locate(ctx context.Context, img Image) (Record, error) {
	size := idx.source.Size()
	off := int64(img.Offset)
	if off+RecordHeaderSize > size {
		return Record{}, fmt.Errorf("image %d: %w: sub-header at %d exceeds source size %d",
			img.GlobalIndex, ErrTruncatedAsset, off, size)
	}
	sub, err := yuftype.ReadRange(ctx, idx.source, off, RecordHeaderSize)
	if err != nil {
		return Record{}, fmt.Errorf("image %d: read sub-header: %w", img.GlobalIndex, err)
	}

	rec := Record{
		DataOffset: off + RecordHeaderSize,
		Reserved:   binary.LittleEndian.Uint32(sub[0:]),
		Size:       binary.LittleEndian.Uint32(sub[4:]),
	}
	if idx.maxImageSize > 0 && rec.Size > idx.maxImageSize {
		return Record{}, fmt.Errorf("image %d: %w: %d bytes exceeds limit %d",
			img.GlobalIndex, ErrSizeOverflow, rec.Size, idx.maxImageSize)
	}
	if rec.DataOffset+int64(rec.Size) > size {
		return Record{}, fmt.Errorf("image %d: %w: %d bytes at %d exceeds source size %d",
			img.GlobalIndex, ErrTruncatedAsset, rec.Size, rec.DataOffset, size)
	}
	return rec, nil
}

// Resolve reads the bytes of one image.
func (idx *Index) Resolve(ctx context.Context, img Image) (Resolved, error) {
	rec, err := idx.Locate(ctx, img)
	if err != nil {
		return Resolved{}, err
	}
	data, err := yuftype.ReadRange(ctx, idx.source, rec.DataOffset, int64(rec.Size))
	if err != nil {
		return Resolved{}, fmt.Errorf("image %d: %w", img.GlobalIndex, err)
	}
	idx.log().Debug("image resolved", "image", img.GlobalIndex, "size", rec.Size)
	return Resolved{Record: rec, Data: data}, nil
}

// Section returns a reader over the bytes of one image without reading them.
func (idx *Index) Section(ctx context.Context, img Image) (*io.SectionReader, Record, error) {
	rec, err := idx.Locate(ctx, img)
	if err != nil {
		return nil, Record{}, err
	}
	return io.NewSectionReader(idx.source, rec.DataOffset, int64(rec.Size)), rec, nil
}
