package images

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/zbirow/yuffin/internal/sizing"
	"github.com/zbirow/yuffin/internal/yuftype"
)

const (
	// Signature is the magic prefix of an image archive.
	Signature = "Yuffin"

	// MediaType marks a media container asset whose bytes are an image archive.
	MediaType = "application/vnd.yuffin-image-archive"

	// HeaderSize is the size of the fixed archive header.
	HeaderSize = 38

	// MaxDirectories is the number of directory ids a u16 entry can address.
	MaxDirectories = 1 << 16

	// EntrySize is the size of one file index entry.
	EntrySize = 8

	// RecordHeaderSize is the size of the sub-header in front of every image.
	RecordHeaderSize = 8
)

// ByteSource provides random access to archive bytes.
type ByteSource = yuftype.ByteSource

// Image is one file index entry.
type Image struct {
	// GlobalIndex is the entry's position in the file index.
	GlobalIndex int

	// Offset is the absolute offset of the image record within the source.
	Offset uint32

	// DirectoryID is the index of the image's directory in the directory table.
	DirectoryID uint16

	// Reserved holds the entry's trailing two bytes, uninterpreted.
	Reserved uint16
}

// Header holds the decoded fixed header.
type Header struct {
	ImageCount      uint64
	DirectoryCount  uint32
	DirTableOffset  uint64
	FileIndexOffset uint64
}

// Index is the decoded directory table and file index of one image archive.
// It is immutable after Open and safe for concurrent use.
type Index struct {
	source         ByteSource
	header         Header
	directories    []string
	images         []Image
	chapters       []Chapter
	maxImageSize   uint32
	chapterPattern *regexp.Regexp
	logger         *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (idx *Index) log() *slog.Logger {
	if idx.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return idx.logger
}

// MatchSignature reports whether magic starts with the image archive signature.
func MatchSignature(magic []byte) bool {
	return len(magic) >= len(Signature) && string(magic[:len(Signature)]) == Signature
}

// Open decodes the header, directory table and file index of the archive in src.
// Image bodies are not read.
func Open(ctx context.Context, src ByteSource, opts ...Option) (*Index, error) {
	idx := &Index{
		source:         src,
		maxImageSize:   DefaultMaxImageSize,
		chapterPattern: DefaultChapterPattern,
	}
	for _, opt := range opts {
		opt(idx)
	}

	header, err := readHeader(ctx, src)
	if err != nil {
		return nil, err
	}
	idx.header = header

	if idx.directories, err = readDirectories(ctx, src, header); err != nil {
		return nil, err
	}
	if idx.images, err = readFileIndex(ctx, src, header); err != nil {
		return nil, err
	}
	idx.chapters = deriveChapters(idx.directories, idx.chapterPattern)

	idx.log().Debug("image archive opened",
		"source", src.SourceID(),
		"images", len(idx.images),
		"directories", len(idx.directories),
		"chapters", len(idx.chapters))
	return idx, nil
}

func readHeader(ctx context.Context, src ByteSource) (Header, error) {
	if src.Size() < int64(len(Signature)) {
		return Header{}, fmt.Errorf("%w: source too small (%d bytes)", ErrInvalidSignature, src.Size())
	}
	magic, err := yuftype.ReadRange(ctx, src, 0, int64(len(Signature)))
	if err != nil {
		return Header{}, fmt.Errorf("read signature: %w", err)
	}
	if !MatchSignature(magic) {
		return Header{}, fmt.Errorf("%w: expected %q, got %q", ErrInvalidSignature, Signature, magic)
	}
	if src.Size() < HeaderSize {
		return Header{}, fmt.Errorf("%w: header truncated (%d of %d bytes)", ErrCorruptIndex, src.Size(), HeaderSize)
	}

	buf, err := yuftype.ReadRange(ctx, src, 0, HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	return Header{
		ImageCount:      binary.LittleEndian.Uint64(buf[10:]),
		DirectoryCount:  binary.LittleEndian.Uint32(buf[18:]),
		DirTableOffset:  binary.LittleEndian.Uint64(buf[22:]),
		FileIndexOffset: binary.LittleEndian.Uint64(buf[30:]),
	}, nil
}

func readDirectories(ctx context.Context, src ByteSource, h Header) ([]string, error) {
	if h.DirectoryCount > MaxDirectories {
		return nil, fmt.Errorf("%w: %d directories declared, at most %d addressable",
			ErrCorruptDirectoryTable, h.DirectoryCount, MaxDirectories)
	}
	if h.DirTableOffset > h.FileIndexOffset {
		return nil, fmt.Errorf("%w: table offset %d after file index offset %d",
			ErrCorruptDirectoryTable, h.DirTableOffset, h.FileIndexOffset)
	}
	start, err := sizing.ToInt64(h.DirTableOffset, ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDirectoryTable, err)
	}
	end, err := sizing.ToInt64(h.FileIndexOffset, ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDirectoryTable, err)
	}
	text, err := yuftype.ReadText(ctx, src, start, end-start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDirectoryTable, err)
	}

	names := strings.Split(text, "\x00")
	if uint64(len(names)) < uint64(h.DirectoryCount) {
		return nil, fmt.Errorf("%w: %d names present, %d declared",
			ErrCorruptDirectoryTable, len(names), h.DirectoryCount)
	}
	return names[:h.DirectoryCount], nil
}

func readFileIndex(ctx context.Context, src ByteSource, h Header) ([]Image, error) {
	length, ok := sizing.MulUint64(h.ImageCount, EntrySize)
	if !ok {
		return nil, fmt.Errorf("%w: image count %d: %w", ErrCorruptIndex, h.ImageCount, ErrSizeOverflow)
	}
	if _, err := sizing.End(h.FileIndexOffset, length, ErrSizeOverflow); err != nil {
		return nil, fmt.Errorf("%w: file index: %w", ErrCorruptIndex, err)
	}
	buf, err := yuftype.ReadRange(ctx, src, int64(h.FileIndexOffset), int64(length)) //nolint:gosec // checked by sizing.End
	if err != nil {
		return nil, fmt.Errorf("%w: file index: %w", ErrCorruptIndex, err)
	}

	images := make([]Image, h.ImageCount)
	for i := range images {
		entry := buf[i*EntrySize : (i+1)*EntrySize]
		img := Image{
			GlobalIndex: i,
			Offset:      binary.LittleEndian.Uint32(entry[0:]),
			DirectoryID: binary.LittleEndian.Uint16(entry[4:]),
			Reserved:    binary.LittleEndian.Uint16(entry[6:]),
		}
		if uint32(img.DirectoryID) >= h.DirectoryCount {
			return nil, fmt.Errorf("%w: image %d references directory %d of %d",
				ErrCorruptIndex, i, img.DirectoryID, h.DirectoryCount)
		}
		images[i] = img
	}
	return images, nil
}

// Source returns the ByteSource the index was opened from.
func (idx *Index) Source() ByteSource {
	return idx.source
}

// Header returns the decoded fixed header.
func (idx *Index) Header() Header {
	return idx.header
}

// Len returns the number of images in the archive.
func (idx *Index) Len() int {
	return len(idx.images)
}

// Images returns all images in file index order.
// The returned slice must not be modified.
func (idx *Index) Images() []Image {
	return idx.images
}

// Image returns the image at global index i.
func (idx *Index) Image(i int) (Image, bool) {
	if i < 0 || i >= len(idx.images) {
		return Image{}, false
	}
	return idx.images[i], true
}

// ImagesIn returns the images of one directory in file index order.
func (idx *Index) ImagesIn(dirID uint16) []Image {
	var out []Image
	for _, img := range idx.images {
		if img.DirectoryID == dirID {
			out = append(out, img)
		}
	}
	return out
}

// Count returns the number of images in one directory.
func (idx *Index) Count(dirID uint16) int {
	n := 0
	for _, img := range idx.images {
		if img.DirectoryID == dirID {
			n++
		}
	}
	return n
}
