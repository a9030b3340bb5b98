package yuffin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/internal/testutil"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		magic string
		want  Format
	}{
		{"YUFFIN", FormatMedia},
		{"Yuffin", FormatImageArchive},
		{"yuffin", FormatUnknown},
		{"YUF", FormatUnknown},
		{"", FormatUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat([]byte(tt.magic)), tt.magic)
	}
	assert.Equal(t, "image-archive", FormatImageArchive.String())
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	media := testutil.BuildMediaContainer(t, []testutil.MediaFile{{Name: "a.mp4", MIME: "video/mp4", Data: []byte("x")}})
	c, err := Open(ctx, testutil.NewMockByteSource(media))
	require.NoError(t, err)
	assert.Equal(t, FormatMedia, c.Format)
	require.NotNil(t, c.Media)
	assert.Nil(t, c.Images)
	assert.Equal(t, 1, c.Media.Len())

	archive := testutil.BuildImageArchive(t, []string{""}, testutil.SeqImages(3))
	c, err = Open(ctx, testutil.NewMockByteSource(archive))
	require.NoError(t, err)
	assert.Equal(t, FormatImageArchive, c.Format)
	require.NotNil(t, c.Images)
	assert.Equal(t, 3, c.Images.Len())
}

func TestOpen_InvalidSignatureBeforeParsing(t *testing.T) {
	t.Parallel()

	src := testutil.NewMockByteSource([]byte("GIF89a and a lot more bytes after the magic"))
	_, err := Open(context.Background(), src)
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, int64(1), src.Reads(), "only the signature is read")

	_, err = Sniff(context.Background(), testutil.NewMockByteSource(nil))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestOpen_PropagatesReaderErrors(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), testutil.NewMockByteSource([]byte("YUFFIN\x00\x00")))
	require.ErrorIs(t, err, ErrCorruptIndex)
}
