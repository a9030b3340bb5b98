package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/internal/testutil"
)

func TestOpenArchive(t *testing.T) {
	t.Parallel()

	pages := testutil.SeqImages(5, 0, 1)
	archive := testutil.BuildImageArchive(t, []string{"chapter_2", "chapter_1"}, pages)
	data := testutil.BuildMediaContainer(t, []testutil.MediaFile{
		{Name: "clip.mp4", MIME: "video/mp4", Data: []byte("video")},
		{Name: "comic.yuffin", MIME: images.MediaType, Data: archive},
	})
	idx := openContainer(t, data)

	asset, ok := idx.Asset(1)
	require.True(t, ok)
	require.Equal(t, KindNestedArchive, asset.Kind)

	arc, err := idx.OpenArchive(context.Background(), asset)
	require.NoError(t, err)
	require.Equal(t, 5, arc.Len())
	assert.Equal(t, "chapter_1", arc.Chapters()[0].Name)

	for i, img := range arc.Images() {
		res, err := arc.Resolve(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, pages[i].Data, res.Data)
	}
}

func TestOpenArchive_NotAnArchive(t *testing.T) {
	t.Parallel()

	idx := openContainer(t, testutil.BuildMediaContainer(t, sampleFiles()))
	asset, _ := idx.Asset(0)
	_, err := idx.OpenArchive(context.Background(), asset)
	require.ErrorIs(t, err, ErrUnsupportedAsset)
}

func TestOpenArchive_Truncated(t *testing.T) {
	t.Parallel()

	archive := testutil.BuildImageArchive(t, []string{""}, testutil.SeqImages(2))
	data := testutil.BuildMediaContainer(t, []testutil.MediaFile{
		{Name: "comic", MIME: images.MediaType, Data: archive},
	})
	idx := openContainer(t, data[:len(data)-1])
	asset, _ := idx.Asset(0)
	_, err := idx.OpenArchive(context.Background(), asset)
	require.ErrorIs(t, err, ErrTruncatedAsset)
}

func TestOpenArchive_BadInnerSignature(t *testing.T) {
	t.Parallel()

	data := testutil.BuildMediaContainer(t, []testutil.MediaFile{
		{Name: "comic", MIME: images.MediaType, Data: []byte("YUFFIN but not an archive at all, long enough")},
	})
	idx := openContainer(t, data)
	asset, _ := idx.Asset(0)
	_, err := idx.OpenArchive(context.Background(), asset)
	require.ErrorIs(t, err, images.ErrInvalidSignature)
}
