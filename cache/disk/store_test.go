package disk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/cache"
	"github.com/zbirow/yuffin/internal/testutil"
)

func key(c byte) string {
	return strings.Repeat(string(c), 64)
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(key('a'), []byte("block")))
	got, ok := s.Get(key('a'), 5)
	require.True(t, ok)
	assert.Equal(t, "block", string(got))
	assert.Equal(t, int64(5), s.SizeBytes())

	_, err = os.Stat(filepath.Join(dir, "aa", key('a')))
	require.NoError(t, err, "blocks are sharded by key prefix")

	_, ok = s.Get(key('b'), 5)
	assert.False(t, ok)
}

func TestStore_WrongLengthIsDropped(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put(key('c'), []byte("abc")))

	_, ok := s.Get(key('c'), 4)
	assert.False(t, ok)
	assert.Zero(t, s.SizeBytes())
	_, ok = s.Get(key('c'), 3)
	assert.False(t, ok)
}

func TestStore_RejectsNonHexKeys(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.Error(t, s.Put("../escape", []byte("x")))
	_, ok := s.Get("", 1)
	assert.False(t, ok)
}

func TestStore_MaxBytesPrunes(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), WithMaxBytes(8))
	require.NoError(t, err)

	require.NoError(t, s.Put(key('1'), []byte("12345")))
	require.NoError(t, s.Put(key('2'), []byte("67890")))
	assert.LessOrEqual(t, s.SizeBytes(), int64(8))
	_, ok := s.Get(key('2'), 5)
	assert.True(t, ok, "newest block is kept")

	require.NoError(t, s.Put(key('3'), []byte("too large for the store")))
	_, ok = s.Get(key('3'), 23)
	assert.False(t, ok)
}

func TestStore_ReopenCountsExistingBlocks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(key('d'), []byte("persisted")))

	reopened, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(9), reopened.SizeBytes())
	freed, err := reopened.Prune(0)
	require.NoError(t, err)
	assert.Equal(t, int64(9), freed)
	assert.Zero(t, reopened.SizeBytes())
}

func TestStore_IgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, WithShardPrefixLen(0))
	require.NoError(t, err)
	require.NoError(t, s.Put(key('e'), []byte("block")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "block-123"), []byte("partial write"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("not a block"), 0o600))

	reopened, err := New(dir, WithShardPrefixLen(0))
	require.NoError(t, err)
	assert.Equal(t, int64(5), reopened.SizeBytes())

	freed, err := reopened.Prune(0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), freed)
	_, err = os.Stat(filepath.Join(dir, "README"))
	require.NoError(t, err, "prune only removes blocks")
}

func TestBlockCache_StoreTier(t *testing.T) {
	t.Parallel()

	data := []byte("abcdefghijklmnopqrstuvwxyz")
	store, err := New(t.TempDir())
	require.NoError(t, err)

	first := testutil.NewMockByteSource(data)
	c1, err := cache.New(4, cache.WithStore(store))
	require.NoError(t, err)
	wrapped, err := c1.Wrap(first, cache.WithBlockSize(8))
	require.NoError(t, err)
	buf := make([]byte, 10)
	_, err = wrapped.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, "efghijklmn", string(buf))
	assert.Positive(t, store.SizeBytes())

	// A fresh memory cache over an identical source is served from the store.
	second := testutil.NewMockByteSource(data)
	c2, err := cache.New(4, cache.WithStore(store))
	require.NoError(t, err)
	wrapped, err = c2.Wrap(second, cache.WithBlockSize(8))
	require.NoError(t, err)
	clear(buf)
	_, err = wrapped.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, "efghijklmn", string(buf))
	assert.Zero(t, second.Reads())
	assert.Equal(t, int64(2), c2.Stats().StoreHits)
}
