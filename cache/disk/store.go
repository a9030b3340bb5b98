// Package disk provides a persistent block store for cache.BlockCache.
//
// Blocks are stored as individual files named by their hex key, sharded
// into subdirectories by key prefix, so cached remote archives survive
// process restarts.
package disk

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
)

// Store is a directory of cached blocks. It is safe for concurrent use.
type Store struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	maxBytes       int64
	bytes          atomic.Int64
	pruneMu        sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithMaxBytes sets the maximum total size of stored blocks.
// Values <= 0 disable the limit.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		s.maxBytes = n
	}
}

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *Store) {
		s.shardPrefixLen = n
	}
}

// WithDirPerm sets the permissions of created directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// New opens or creates a store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("block store dir is empty")
	}
	s := &Store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardPrefixLen < 0 {
		return nil, errors.New("block store shard prefix length must be >= 0")
	}
	if s.maxBytes < 0 {
		return nil, errors.New("block store max bytes must be >= 0")
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	blocks, err := s.blocks()
	if err != nil {
		return nil, err
	}
	var size int64
	for _, b := range blocks {
		size += b.size
	}
	s.bytes.Store(size)
	return s, nil
}

// Get returns the block stored under key if it has exactly length bytes.
// A block of the wrong length is removed.
func (s *Store) Get(key string, length int64) ([]byte, bool) {
	path, ok := s.path(key)
	if !ok {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a hex key
	if err != nil {
		return nil, false
	}
	if int64(len(data)) != length {
		if os.Remove(path) == nil {
			s.bytes.Add(-int64(len(data)))
		}
		return nil, false
	}
	return data, true
}

// Put stores data under key. Blocks that do not fit under the size limit
// are silently dropped.
func (s *Store) Put(key string, data []byte) error {
	path, ok := s.path(key)
	if !ok {
		return errors.New("block store: invalid key")
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if ok, err := s.ensureCapacity(int64(len(data))); err != nil || !ok {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "block-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
		return err
	}
	s.bytes.Add(int64(len(data)))
	return nil
}

// MaxBytes returns the configured size limit (0 = unlimited).
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SizeBytes returns the current total size of stored blocks.
func (s *Store) SizeBytes() int64 {
	return s.bytes.Load()
}

// Prune removes the oldest blocks until the store is at or below
// targetBytes. It returns the number of bytes freed.
func (s *Store) Prune(targetBytes int64) (int64, error) {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	blocks, err := s.blocks()
	if err != nil {
		return 0, err
	}
	var remaining int64
	for _, b := range blocks {
		remaining += b.size
	}
	slices.SortFunc(blocks, func(a, b storedBlock) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})

	var freed int64
	for _, b := range blocks {
		if remaining <= max(targetBytes, 0) {
			break
		}
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.bytes.Store(remaining)
			return freed, err
		}
		remaining -= b.size
		freed += b.size
	}
	s.bytes.Store(remaining)
	return freed, nil
}

type storedBlock struct {
	path    string
	size    int64
	modTime time.Time
}

// blocks lists the committed blocks in the store's key layout. Temporary
// files and names that are not keys are ignored.
func (s *Store) blocks() ([]storedBlock, error) {
	dirs := []string{s.dir}
	if s.shardPrefixLen > 0 {
		shards, err := os.ReadDir(s.dir)
		if err != nil {
			return nil, err
		}
		dirs = dirs[:0]
		for _, e := range shards {
			if e.IsDir() && isKey(e.Name()) {
				dirs = append(dirs, filepath.Join(s.dir, e.Name()))
			}
		}
	}

	var blocks []storedBlock
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || !isKey(e.Name()) {
				continue
			}
			info, err := e.Info()
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, storedBlock{
				path:    filepath.Join(dir, e.Name()),
				size:    info.Size(),
				modTime: info.ModTime(),
			})
		}
	}
	return blocks, nil
}

func (s *Store) ensureCapacity(need int64) (bool, error) {
	if s.maxBytes <= 0 {
		return true, nil
	}
	if need > s.maxBytes {
		return false, nil
	}
	if s.SizeBytes()+need <= s.maxBytes {
		return true, nil
	}
	if _, err := s.Prune(s.maxBytes - need); err != nil {
		return false, err
	}
	return s.SizeBytes()+need <= s.maxBytes, nil
}

// isKey reports whether name is a non-empty run of lowercase hex digits.
func isKey(name string) bool {
	if name == "" {
		return false
	}
	for i := range len(name) {
		c := name[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// path maps a key to its file. Keys that are not lowercase hex are rejected.
func (s *Store) path(key string) (string, bool) {
	if !isKey(key) {
		return "", false
	}
	if s.shardPrefixLen <= 0 {
		return filepath.Join(s.dir, key), true
	}
	prefixLen := min(s.shardPrefixLen, len(key))
	return filepath.Join(s.dir, key[:prefixLen], key), true
}
