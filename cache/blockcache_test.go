package cache

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/internal/testutil"
)

func sequence(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCachedSource_ReadAt(t *testing.T) {
	t.Parallel()

	data := sequence(1000)
	src := testutil.NewMockByteSource(data)
	c, err := New(16)
	require.NoError(t, err)
	cached, err := c.Wrap(src, WithBlockSize(64))
	require.NoError(t, err)
	assert.Equal(t, src.SourceID(), cached.SourceID())
	assert.Equal(t, int64(1000), cached.Size())

	buf := make([]byte, 100)
	n, err := cached.ReadAt(buf, 30)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[30:130], buf)
	reads := src.Reads()

	n, err = cached.ReadAt(buf[:50], 70)
	require.NoError(t, err)
	assert.Equal(t, data[70:120], buf[:n])
	assert.Equal(t, reads, src.Reads(), "second read is served from cache")
	assert.Positive(t, c.Stats().Hits)
}

func TestCachedSource_ReadAtEnd(t *testing.T) {
	t.Parallel()

	data := sequence(100)
	c, err := New(4)
	require.NoError(t, err)
	cached, err := c.Wrap(testutil.NewMockByteSource(data), WithBlockSize(32))
	require.NoError(t, err)

	buf := make([]byte, 20)
	n, err := cached.ReadAt(buf, 90)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 10, n)
	assert.Equal(t, data[90:], buf[:n])

	_, err = cached.ReadAt(buf, 100)
	require.ErrorIs(t, err, io.EOF)
	_, err = cached.ReadAt(buf, -1)
	require.Error(t, err)
}

func TestCachedSource_LargeReadsBypass(t *testing.T) {
	t.Parallel()

	c, err := New(64)
	require.NoError(t, err)
	cached, err := c.Wrap(testutil.NewMockByteSource(sequence(4096)), WithBlockSize(64), WithMaxBlocksPerRead(2))
	require.NoError(t, err)

	_, err = cached.ReadAt(make([]byte, 1024), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCachedSource_Eviction(t *testing.T) {
	t.Parallel()

	c, err := New(2)
	require.NoError(t, err)
	cached, err := c.Wrap(testutil.NewMockByteSource(sequence(1024)), WithBlockSize(16))
	require.NoError(t, err)

	for off := int64(0); off < 160; off += 16 {
		_, err := cached.ReadAt(make([]byte, 16), off)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCachedSource_ConcurrentMissesFetchOnce(t *testing.T) {
	t.Parallel()

	data := sequence(256)
	src := testutil.NewGatedByteSource(data)
	reached, open := src.Gate(0)

	c, err := New(8)
	require.NoError(t, err)
	cached, err := c.Wrap(src, WithBlockSize(256))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 10)
			if _, err := cached.ReadAt(buf, int64(i)); err == nil {
				results[i] = buf
			}
		}()
	}
	<-reached
	open()
	wg.Wait()

	assert.Equal(t, int64(1), c.Stats().Misses)
	for i, got := range results {
		assert.Equal(t, data[i:i+10], got)
	}
	assert.Equal(t, 1, c.Len())
}

func TestCachedSource_ReadRange(t *testing.T) {
	t.Parallel()

	data := sequence(300)
	c, err := New(8)
	require.NoError(t, err)
	cached, err := c.Wrap(testutil.NewMockByteSource(data), WithBlockSize(128))
	require.NoError(t, err)

	rr, ok := cached.(RangeReader)
	require.True(t, ok)
	rc, err := rr.ReadRange(250, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.True(t, bytes.Equal(data[250:], got))
}

func TestWrap_Validation(t *testing.T) {
	t.Parallel()

	c, err := New(0)
	require.NoError(t, err)
	_, err = c.Wrap(nil)
	require.Error(t, err)
	_, err = c.Wrap(testutil.NewMockByteSource(nil), WithBlockSize(0))
	require.Error(t, err)
}

func TestCachedSource_OpensImageArchive(t *testing.T) {
	t.Parallel()

	imgs := testutil.SeqImages(20, 0, 1)
	data := testutil.BuildImageArchive(t, []string{"chapter_1", "chapter_2"}, imgs)
	c, err := New(32)
	require.NoError(t, err)
	cached, err := c.Wrap(testutil.NewMockByteSource(data), WithBlockSize(32))
	require.NoError(t, err)

	idx, err := images.Open(context.Background(), cached)
	require.NoError(t, err)
	for i, img := range idx.Images() {
		res, err := idx.Resolve(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, imgs[i].Data, res.Data)
	}
}
