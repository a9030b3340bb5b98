// Package source provides ByteSource implementations over local files,
// in-memory buffers and sub-ranges of other sources.
package source

import (
	"bytes"
	"io"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/opencontainers/go-digest"

	"github.com/zbirow/yuffin/internal/yuftype"
)

// ByteSource provides random access to container bytes.
type ByteSource = yuftype.ByteSource

// File is a ByteSource backed by an open file.
// os.File has ReadAt but not Size, so the size is captured at construction.
type File struct {
	file     *os.File
	size     int64
	sourceID string
}

// OpenFile opens the file at path for random access.
// Close must be called to release the file handle.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // opening caller paths is the purpose of OpenFile
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	src, err := NewFile(f)
	if err != nil {
		_ = f.Close() //nolint:errcheck // the stat error is more useful
		return nil, err
	}
	return src, nil
}

// NewFile wraps an already open file. The caller keeps ownership of f.
func NewFile(f *os.File) (*File, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	name := f.Name()
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	return &File{
		file:     f,
		size:     info.Size(),
		sourceID: "file:" + name + "|size:" + strconv.FormatInt(info.Size(), 10) + "|mod:" + strconv.FormatInt(info.ModTime().UnixNano(), 10),
	}, nil
}

// ReadAt implements io.ReaderAt.
func (s *File) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the file size at open time.
func (s *File) Size() int64 {
	return s.size
}

// SourceID identifies the file by path, size and modification time.
func (s *File) SourceID() string {
	return s.sourceID
}

// Close closes the underlying file.
func (s *File) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Bytes is a ByteSource over an in-memory buffer.
type Bytes struct {
	r        *bytes.Reader
	sourceID string
}

// NewBytes returns a ByteSource over data. The slice must not be modified afterwards.
func NewBytes(data []byte) *Bytes {
	return &Bytes{
		r:        bytes.NewReader(data),
		sourceID: "bytes:" + digest.FromBytes(data).String(),
	}
}

// ReadAt implements io.ReaderAt.
func (s *Bytes) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

// Size returns the buffer length.
func (s *Bytes) Size() int64 {
	return s.r.Size()
}

// SourceID returns the content digest of the buffer.
func (s *Bytes) SourceID() string {
	return s.sourceID
}

// Section is a bounded view of a sub-range of another ByteSource.
type Section struct {
	parent ByteSource
	off    int64
	n      int64
	id     string
}

// NewSection returns a view of n bytes of parent starting at off.
// It fails with ErrOutOfBounds if the range does not fit.
func NewSection(parent ByteSource, off, n int64) (*Section, error) {
	if err := yuftype.CheckRange(off, n, parent.Size()); err != nil {
		return nil, fmt.Errorf("section %d+%d of %s: %w", off, n, parent.SourceID(), err)
	}
	return &Section{
		parent: parent,
		off:    off,
		n:      n,
		id:     parent.SourceID() + "#" + strconv.FormatInt(off, 10) + "+" + strconv.FormatInt(n, 10),
	}, nil
}

// ReadAt implements io.ReaderAt relative to the start of the section.
func (s *Section) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("section read at %d: %w", off, yuftype.ErrOutOfBounds)
	}
	if off >= s.n {
		return 0, io.EOF
	}
	short := false
	if rem := s.n - off; int64(len(p)) > rem {
		p = p[:rem]
		short = true
	}
	n, err := s.parent.ReadAt(p, s.off+off)
	if err == nil && short {
		err = io.EOF
	}
	return n, err
}

// Size returns the section length.
func (s *Section) Size() int64 {
	return s.n
}

// SourceID identifies the section by its parent and range.
func (s *Section) SourceID() string {
	return s.id
}

// Offset returns the section's start within its parent.
func (s *Section) Offset() int64 {
	return s.off
}
