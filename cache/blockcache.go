// Package cache provides an in-memory block cache for ByteSources, with an
// optional persistent second tier (see the disk subpackage).
//
// Block caching pays off for remote sources, where browsing an archive issues
// many small scattered reads: sub-headers, thumbnails and the lightbox image.
// Reads spanning more than MaxBlocksPerRead blocks, such as extracting a large
// asset, bypass the cache.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/zbirow/yuffin/internal/yuftype"
)

// ByteSource provides random access to data for block caching.
type ByteSource = yuftype.ByteSource

// RangeReader provides range reads for block fetches.
// Sources implementing it are fetched with one streamed request per block.
type RangeReader interface {
	ReadRange(off, length int64) (io.ReadCloser, error)
}

const (
	// DefaultBlockSize is the default size of a cached block.
	DefaultBlockSize int64 = 64 << 10

	// DefaultMaxBlocks is the default number of blocks kept in memory.
	DefaultMaxBlocks = 1024

	// DefaultMaxBlocksPerRead caps cached blocks per ReadAt.
	DefaultMaxBlocksPerRead = 4
)

type blockKey struct {
	sourceID  string
	blockSize int64
	index     int64
}

// hex returns the Store key of k.
func (k blockKey) hex() string {
	h := sha256.New()
	_, _ = h.Write([]byte(k.sourceID)) //nolint:errcheck // hash writes never fail
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(k.blockSize)) //nolint:gosec // validated > 0 by Wrap
	binary.BigEndian.PutUint64(buf[8:], uint64(k.index))     //nolint:gosec // block indexes are >= 0
	_, _ = h.Write(buf[:])                                   //nolint:errcheck // hash writes never fail
	return hex.EncodeToString(h.Sum(nil))
}

// Stats counts block lookups. Misses that were served by the Store are
// counted in both Misses and StoreHits.
type Stats struct {
	Hits      int64
	Misses    int64
	StoreHits int64
}

// Store is a second cache tier consulted on memory misses, such as
// disk.Store. Keys are lowercase hex strings.
type Store interface {
	Get(key string, length int64) ([]byte, bool)
	Put(key string, data []byte) error
}

// BlockCache keeps recently read blocks of any number of sources in memory.
// It is safe for concurrent use.
type BlockCache struct {
	blocks     *lru.Cache[blockKey, []byte]
	store      Store
	fetchGroup singleflight.Group
	hits       atomic.Int64
	misses     atomic.Int64
	storeHits  atomic.Int64
}

// Option configures a BlockCache.
type Option func(*BlockCache)

// WithStore adds a second tier behind the in-memory blocks. Store write
// failures never fail a read.
func WithStore(store Store) Option {
	return func(c *BlockCache) {
		c.store = store
	}
}

// New returns a cache holding at most maxBlocks blocks in memory.
// Values < 1 use DefaultMaxBlocks.
func New(maxBlocks int, opts ...Option) (*BlockCache, error) {
	if maxBlocks < 1 {
		maxBlocks = DefaultMaxBlocks
	}
	blocks, err := lru.New[blockKey, []byte](maxBlocks)
	if err != nil {
		return nil, fmt.Errorf("block cache: %w", err)
	}
	c := &BlockCache{blocks: blocks}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	return c.blocks.Len()
}

// Stats returns the hit and miss counts so far.
func (c *BlockCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), StoreHits: c.storeHits.Load()}
}

// Purge drops every block held in memory. The Store is left untouched.
func (c *BlockCache) Purge() {
	c.blocks.Purge()
}

// WrapConfig controls block cache wrapping behavior.
type WrapConfig struct {
	// BlockSize is the size in bytes of each cached block.
	BlockSize int64

	// MaxBlocksPerRead is the maximum number of blocks that will be cached
	// for a single ReadAt call. Use 0 to disable the limit.
	MaxBlocksPerRead int
}

// WrapOption configures block cache wrapping behavior.
type WrapOption func(*WrapConfig)

// WithBlockSize sets the block size used for caching.
func WithBlockSize(n int64) WrapOption {
	return func(cfg *WrapConfig) {
		cfg.BlockSize = n
	}
}

// WithMaxBlocksPerRead bypasses caching when a ReadAt spans more than n blocks.
// Values <= 0 disable the limit.
func WithMaxBlocksPerRead(n int) WrapOption {
	return func(cfg *WrapConfig) {
		cfg.MaxBlocksPerRead = n
	}
}

// Wrap returns a ByteSource that caches reads from src in fixed-size blocks.
// The returned source also implements RangeReader.
func (c *BlockCache) Wrap(src ByteSource, opts ...WrapOption) (ByteSource, error) {
	if src == nil {
		return nil, errors.New("block cache: source is nil")
	}
	cfg := WrapConfig{BlockSize: DefaultBlockSize, MaxBlocksPerRead: DefaultMaxBlocksPerRead}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BlockSize <= 0 {
		return nil, errors.New("block cache: block size must be > 0")
	}
	if cfg.BlockSize > math.MaxInt32 {
		return nil, errors.New("block cache: block size too large")
	}
	sourceID := src.SourceID()
	if sourceID == "" {
		return nil, errors.New("block cache: source id is empty")
	}
	return &cachedSource{
		src:              src,
		cache:            c,
		sourceID:         sourceID,
		blockSize:        cfg.BlockSize,
		maxBlocksPerRead: cfg.MaxBlocksPerRead,
	}, nil
}

// cachedSource wraps a ByteSource with block-level caching.
type cachedSource struct {
	src              ByteSource
	cache            *BlockCache
	sourceID         string
	blockSize        int64
	maxBlocksPerRead int
}

func (s *cachedSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	size := s.src.Size()
	if off >= size {
		return 0, io.EOF
	}

	expected := min(int64(len(p)), size-off)
	startBlock := off / s.blockSize
	endBlock := (off + expected - 1) / s.blockSize

	if s.maxBlocksPerRead > 0 && endBlock-startBlock+1 > int64(s.maxBlocksPerRead) {
		return s.src.ReadAt(p, off)
	}

	var n int64
	for blockIndex := startBlock; blockIndex <= endBlock; blockIndex++ {
		blockStart := blockIndex * s.blockSize
		blockEnd := min(blockStart+s.blockSize, size)

		data, err := s.block(blockIndex, blockStart, blockEnd-blockStart)
		if err != nil {
			return int(n), err
		}

		copyStart := max(off, blockStart)
		copyEnd := min(off+expected, blockEnd)
		n += int64(copy(p[copyStart-off:copyEnd-off], data[copyStart-blockStart:copyEnd-blockStart]))
	}

	if expected < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

func (s *cachedSource) ReadRange(off, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, fmt.Errorf("read range length %d: negative length", length)
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if off < 0 {
		return nil, fmt.Errorf("read range %d: negative offset", off)
	}
	size := s.src.Size()
	if off >= size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	return io.NopCloser(io.NewSectionReader(s, off, min(length, size-off))), nil
}

func (s *cachedSource) Size() int64 {
	return s.src.Size()
}

func (s *cachedSource) SourceID() string {
	return s.sourceID
}

// block returns one block, fetching it once even under concurrent misses.
func (s *cachedSource) block(index, off, length int64) ([]byte, error) {
	key := blockKey{sourceID: s.sourceID, blockSize: s.blockSize, index: index}
	if data, ok := s.cache.blocks.Get(key); ok {
		s.cache.hits.Add(1)
		return data, nil
	}

	flightKey := fmt.Sprintf("%s|%d|%d", s.sourceID, s.blockSize, index)
	result, err, _ := s.cache.fetchGroup.Do(flightKey, func() (any, error) {
		if data, ok := s.cache.blocks.Get(key); ok {
			s.cache.hits.Add(1)
			return data, nil
		}
		s.cache.misses.Add(1)
		store := s.cache.store
		var storeKey string
		if store != nil {
			storeKey = key.hex()
			if data, ok := store.Get(storeKey, length); ok {
				s.cache.storeHits.Add(1)
				s.cache.blocks.Add(key, data)
				return data, nil
			}
		}
		data, err := s.fetch(off, length)
		if err != nil {
			return nil, err
		}
		s.cache.blocks.Add(key, data)
		if store != nil {
			_ = store.Put(storeKey, data) //nolint:errcheck // store writes are best-effort
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

func (s *cachedSource) fetch(off, length int64) ([]byte, error) {
	if rr, ok := s.src.(RangeReader); ok {
		rc, err := rr.ReadRange(off, length)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != length {
			return nil, io.ErrUnexpectedEOF
		}
		return data, nil
	}

	buf := make([]byte, length)
	n, err := s.src.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if int64(n) != length {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}
