package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/internal/yuftype"
)

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "media.yuf")
	require.NoError(t, os.WriteFile(path, []byte("YUFFIN container"), 0o600))

	src, err := OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	assert.Equal(t, int64(16), src.Size())
	assert.True(t, strings.HasPrefix(src.SourceID(), "file:"))
	assert.Contains(t, src.SourceID(), "|size:16|mod:")

	buf := make([]byte, 9)
	n, err := src.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, "container", string(buf[:n]))

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}

func TestOpenFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := OpenFile(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBytes(t *testing.T) {
	t.Parallel()

	a := NewBytes([]byte("abc"))
	b := NewBytes([]byte("abc"))
	c := NewBytes([]byte("abd"))

	assert.Equal(t, int64(3), a.Size())
	assert.Equal(t, a.SourceID(), b.SourceID())
	assert.NotEqual(t, a.SourceID(), c.SourceID())
	assert.True(t, strings.HasPrefix(a.SourceID(), "bytes:sha256:"))
}

func TestSection(t *testing.T) {
	t.Parallel()

	parent := NewBytes([]byte("0123456789"))
	sec, err := NewSection(parent, 3, 4)
	require.NoError(t, err)

	assert.Equal(t, int64(4), sec.Size())
	assert.Equal(t, int64(3), sec.Offset())
	assert.Equal(t, parent.SourceID()+"#3+4", sec.SourceID())

	got, err := io.ReadAll(io.NewSectionReader(sec, 0, sec.Size()))
	require.NoError(t, err)
	assert.Equal(t, "3456", string(got))

	buf := make([]byte, 8)
	n, err := sec.ReadAt(buf, 2)
	assert.Equal(t, 2, n)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "56", string(buf[:n]))

	_, err = sec.ReadAt(buf, 4)
	require.ErrorIs(t, err, io.EOF)
}

func TestNewSection_OutOfBounds(t *testing.T) {
	t.Parallel()

	parent := NewBytes([]byte("0123456789"))
	for _, tc := range []struct{ off, n int64 }{{-1, 2}, {0, 11}, {8, 3}, {11, 0}} {
		_, err := NewSection(parent, tc.off, tc.n)
		require.ErrorIs(t, err, yuftype.ErrOutOfBounds, "off=%d n=%d", tc.off, tc.n)
	}

	sec, err := NewSection(parent, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sec.Size())
}
