package viewer

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/internal/testutil"
	"github.com/zbirow/yuffin/media"
)

func openPlayer(t *testing.T, opts ...Option) *Player {
	t.Helper()
	archive := testutil.BuildImageArchive(t, []string{"chapter_1"}, pngImages(t, 4))
	data := testutil.BuildMediaContainer(t, []testutil.MediaFile{
		{Name: "intro.mp4", MIME: "video/mp4", Data: []byte("video-bytes")},
		{Name: "theme.mp3", MIME: "audio/mpeg", Data: []byte("audio")},
		{Name: "comic", MIME: images.MediaType, Data: archive},
		{Name: "readme.txt", MIME: "text/plain", Data: []byte("hi")},
	})
	idx, err := media.Open(context.Background(), testutil.NewMockByteSource(data))
	require.NoError(t, err)
	p := NewPlayer(idx, opts...)
	t.Cleanup(p.Close)
	return p
}

func assetAt(t *testing.T, p *Player, i int) media.Asset {
	t.Helper()
	a, ok := p.Index().Asset(i)
	require.True(t, ok)
	return a
}

func TestPlay(t *testing.T) {
	t.Parallel()

	var rc releaseCounter
	p := openPlayer(t, WithOnRelease(rc.hook))
	ctx := context.Background()

	video, err := p.Play(ctx, assetAt(t, p, 0))
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", video.Content().ContentType)
	r, err := video.Reader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(got))

	audio, err := p.Play(ctx, assetAt(t, p, 1))
	require.NoError(t, err)
	assert.True(t, video.Released())
	cur, ok := p.Playing()
	require.True(t, ok)
	assert.Same(t, audio, cur)

	assert.True(t, p.Stop())
	assert.False(t, p.Stop())
	assert.Equal(t, 0, p.Handles().Outstanding())
	rc.allOnce(t)
}

func TestPlay_Unsupported(t *testing.T) {
	t.Parallel()

	p := openPlayer(t)
	for _, i := range []int{2, 3} {
		_, err := p.Play(context.Background(), assetAt(t, p, i))
		require.ErrorIs(t, err, media.ErrUnsupportedAsset)
	}
	assert.Equal(t, 0, p.Handles().Outstanding())
}

func TestOpenGallery(t *testing.T) {
	t.Parallel()

	p := openPlayer(t, WithPageSize(2))
	ctx := context.Background()

	_, err := p.Play(ctx, assetAt(t, p, 0))
	require.NoError(t, err)

	g, err := p.OpenGallery(ctx, assetAt(t, p, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Galleries())
	_, playing := p.Playing()
	assert.False(t, playing)

	tiles, err := g.Render(ctx)
	require.NoError(t, err)
	require.Len(t, tiles, 2)
	for _, tile := range tiles {
		require.NoError(t, tile.Err)
	}

	g.Close()
	assert.Equal(t, 0, p.Galleries())
	assert.Equal(t, 0, g.Handles().Outstanding())

	_, err = p.OpenGallery(ctx, assetAt(t, p, 0))
	require.ErrorIs(t, err, media.ErrUnsupportedAsset)
}

func TestPlayerClose_ClosesGalleries(t *testing.T) {
	t.Parallel()

	p := openPlayer(t)
	ctx := context.Background()

	g, err := p.OpenGallery(ctx, assetAt(t, p, 2))
	require.NoError(t, err)
	_, err = g.Render(ctx)
	require.NoError(t, err)

	p.Close()
	assert.Equal(t, 0, g.Handles().Outstanding())
	assert.Equal(t, 0, p.Galleries())

	_, err = g.Render(ctx)
	require.ErrorIs(t, err, ErrClosed)
	_, err = p.Play(ctx, assetAt(t, p, 0))
	require.ErrorIs(t, err, ErrClosed)
	p.Close()
}
