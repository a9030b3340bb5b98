package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/internal/testutil"
)

func sampleFiles() []testutil.MediaFile {
	return []testutil.MediaFile{
		{Name: "intro.mp4", MIME: "video/mp4", Data: []byte("mp4-bytes")},
		{Name: "theme.ogg", MIME: "audio/ogg", Data: []byte("ogg")},
		{Name: "notes.txt", MIME: "text/plain", Data: []byte("hello notes")},
	}
}

func openContainer(t *testing.T, data []byte, opts ...Option) *Index {
	t.Helper()
	idx, err := Open(context.Background(), testutil.NewMockByteSource(data), opts...)
	require.NoError(t, err)
	return idx
}

func TestOpen(t *testing.T) {
	t.Parallel()

	files := sampleFiles()
	idx := openContainer(t, testutil.BuildMediaContainer(t, files))

	require.Equal(t, 3, idx.Len())
	assets := idx.Assets()
	assert.Equal(t, []Kind{KindVideo, KindAudio, KindUnsupported},
		[]Kind{assets[0].Kind, assets[1].Kind, assets[2].Kind})

	for i, a := range assets {
		assert.Equal(t, i, a.ID)
		assert.Equal(t, files[i].Name, a.Name)
		assert.Equal(t, uint64(len(files[i].Data)), a.Size)

		r, err := idx.Section(a)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, files[i].Data, got)
	}
}

func TestOpen_DoesNotReadAssets(t *testing.T) {
	t.Parallel()

	src := testutil.NewMockByteSource(testutil.BuildMediaContainer(t, sampleFiles()))
	_, err := Open(context.Background(), src)
	require.NoError(t, err)
	// signature, header, index block
	assert.Equal(t, int64(3), src.Reads())
}

func TestOpen_TrustsStoredOffsets(t *testing.T) {
	t.Parallel()

	payload := []byte("PAYLOAD")
	const raw = `[{"name":"b.webm","size":7,"mime":"video/webm","offset":%d,"id":9}]`

	// Five bytes of padding sit between the index block and the payload.
	var block []byte
	for off := 0; ; {
		block = testutil.MediaIndexBlock(fmt.Sprintf(raw, off))
		want := HeaderSize + len(block) + 5
		if want == off {
			break
		}
		off = want
	}
	data := append(testutil.MediaHeader(block), []byte("-----")...)
	data = append(data, payload...)

	idx := openContainer(t, data)
	a, ok := idx.Lookup(9)
	require.True(t, ok)
	got, err := idx.ReadAsset(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOpen_InvalidSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: []byte("YUF")},
		{name: "image archive magic", data: append([]byte("Yuffin"), make([]byte, 40)...)},
		{name: "garbage", data: []byte("PK\x03\x04 not a container")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := testutil.NewMockByteSource(tt.data)
			_, err := Open(context.Background(), src)
			require.ErrorIs(t, err, ErrInvalidSignature)
			assert.LessOrEqual(t, src.Reads(), int64(1))
		})
	}
}

func TestOpen_CorruptIndex(t *testing.T) {
	t.Parallel()

	oversized := testutil.MediaHeader(nil)
	binary.BigEndian.PutUint64(oversized[8:], 1000)

	tests := []struct {
		name      string
		data      []byte
		outOfBnds bool
	}{
		{name: "short header", data: []byte("YUFFIN\x00\x00\x00")},
		{name: "index past end", data: oversized, outOfBnds: true},
		{name: "bad base64", data: testutil.MediaHeader([]byte("!!!not base64!!!"))},
		{name: "bad json", data: testutil.MediaHeader(testutil.MediaIndexBlock(`[{"name":`))},
		{name: "not a list", data: testutil.MediaHeader(testutil.MediaIndexBlock(`{"name":"a"}`))},
		{name: "negative size", data: testutil.MediaHeader(testutil.MediaIndexBlock(`[{"name":"a","size":-1,"mime":"video/mp4","offset":0}]`))},
		{name: "null entry", data: testutil.MediaHeader(testutil.MediaIndexBlock(`[null]`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Open(context.Background(), testutil.NewMockByteSource(tt.data))
			require.ErrorIs(t, err, ErrCorruptIndex)
			if tt.outOfBnds {
				require.ErrorIs(t, err, ErrOutOfBounds)
			}
		})
	}
}

func TestOpen_MaxIndexSize(t *testing.T) {
	t.Parallel()

	data := testutil.BuildMediaContainer(t, sampleFiles())
	_, err := Open(context.Background(), testutil.NewMockByteSource(data), WithMaxIndexSize(8))
	require.ErrorIs(t, err, ErrSizeOverflow)

	_, err = Open(context.Background(), testutil.NewMockByteSource(data), WithMaxIndexSize(0))
	require.NoError(t, err)
}

func TestOpen_EmptyIndex(t *testing.T) {
	t.Parallel()

	idx := openContainer(t, testutil.MediaHeader(testutil.MediaIndexBlock(`[]`)))
	assert.Equal(t, 0, idx.Len())
	_, ok := idx.Asset(0)
	assert.False(t, ok)
}

func TestOpen_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, testutil.NewMockByteSource(testutil.BuildMediaContainer(t, sampleFiles())))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSection_TruncatedAsset(t *testing.T) {
	t.Parallel()

	data := testutil.BuildMediaContainer(t, sampleFiles())
	idx := openContainer(t, data[:len(data)-3])

	assets := idx.Assets()
	_, err := idx.Section(assets[0])
	require.NoError(t, err)

	_, err = idx.Section(assets[2])
	require.ErrorIs(t, err, ErrTruncatedAsset)

	_, err = idx.ReadAsset(context.Background(), assets[2])
	require.ErrorIs(t, err, ErrTruncatedAsset)

	_, err = idx.Section(Asset{Offset: ^uint64(0), Size: 2})
	require.ErrorIs(t, err, ErrTruncatedAsset)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	raw := `[{"id":7,"name":"a","size":0,"mime":"video/mp4","offset":0},` +
		`{"id":7,"name":"b","size":0,"mime":"video/mp4","offset":0},` +
		`{"name":"c","size":0,"mime":"audio/mpeg","offset":0}]`
	idx := openContainer(t, testutil.MediaHeader(testutil.MediaIndexBlock(raw)))

	a, ok := idx.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "a", a.Name)

	c, ok := idx.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "c", c.Name)

	_, ok = idx.Lookup(99)
	assert.False(t, ok)
}

func TestOpen_TolerantOfWhitespaceInBase64(t *testing.T) {
	t.Parallel()

	block := testutil.MediaIndexBlock(`[{"name":"a","size":0,"mime":"video/mp4","offset":0}]`)
	wrapped := append(append([]byte{}, block[:8]...), '\n')
	wrapped = append(wrapped, block[8:]...)
	idx := openContainer(t, testutil.MediaHeader(wrapped))
	assert.Equal(t, 1, idx.Len())
}
