// Package sink writes extracted assets to the filesystem.
//
// Files are written to a temporary file in the destination directory and
// renamed into place, so partially written files are never visible at their
// final path. All paths are resolved through an os.Root, which rejects
// names that would escape the destination.
package sink

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const copyBufferSize = 4 << 20

// ProgressEvent reports bytes written for one file.
type ProgressEvent struct {
	// Path is the slash-separated destination path relative to the root.
	Path string

	// Delta is the number of bytes written since the previous event.
	Delta uint64

	// Written is the number of bytes written to Path so far.
	Written uint64

	// Total is the expected size of Path.
	Total uint64
}

// ProgressFunc receives progress updates during extraction.
type ProgressFunc func(ProgressEvent)

// Stats summarizes an extraction.
type Stats struct {
	// Files is the number of files written.
	Files int

	// Bytes is the total number of bytes written.
	Bytes uint64

	// Skipped is the number of files left untouched because they already existed.
	Skipped int

	// Failed holds one error per asset that could not be extracted.
	Failed []error
}

// FileSink writes files below a destination directory.
type FileSink struct {
	destDir   string
	overwrite bool
	progress  ProgressFunc
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) Option {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithProgress sets a callback that receives progress updates.
func WithProgress(fn ProgressFunc) Option {
	return func(s *FileSink) {
		s.progress = fn
	}
}

// New creates a FileSink that writes to destDir, creating it if needed.
func New(destDir string, opts ...Option) (*FileSink, error) {
	if destDir == "" {
		return nil, errors.New("sink: destination dir is empty")
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ShouldWrite returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldWrite(path string) bool {
	if s.overwrite {
		return true
	}
	if !fs.ValidPath(path) {
		return true
	}
	_, err := os.Stat(filepath.Join(s.destDir, filepath.FromSlash(path)))
	return errors.Is(err, fs.ErrNotExist)
}

// Write copies size bytes from r to path, which must be a valid
// slash-separated relative path. It returns the number of bytes written.
func (s *FileSink) Write(ctx context.Context, path string, r io.Reader, size uint64) (uint64, error) {
	if !fs.ValidPath(path) || path == "." {
		return 0, &fs.PathError{Op: "extract", Path: path, Err: fs.ErrInvalid}
	}
	rel := filepath.FromSlash(path)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return 0, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	defer root.Close()

	if err := root.MkdirAll(filepath.Dir(rel), 0o750); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmp, tmpRel, err := createTempFile(root, filepath.Dir(rel), ".yuffin-")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	written, err := s.copy(ctx, tmp, r, path, size)
	if err == nil && written != size {
		err = fmt.Errorf("short copy: %d of %d bytes", written, size)
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := root.Rename(tmpRel, rel); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return 0, fmt.Errorf("rename to %s: %w", path, err)
	}
	return written, nil
}

// copy copies from src to dst until EOF or error, checking for context
// cancellation between reads.
func (s *FileSink) copy(ctx context.Context, dst io.Writer, src io.Reader, path string, total uint64) (uint64, error) {
	buf := make([]byte, min(copyBufferSize, max(total, 1)))
	var written uint64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				written += uint64(nw) //nolint:gosec // nw is non-negative by io.Writer contract
				if s.progress != nil {
					s.progress(ProgressEvent{Path: path, Delta: uint64(nw), Written: written, Total: total}) //nolint:gosec // see above
				}
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return written, nil
			}
			return written, er
		}
	}
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
