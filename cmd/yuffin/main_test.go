package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/internal/testutil"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--no-progress", "--log-level", "error"))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

// Commands share package-level flag state, so these run sequentially.
func TestCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	png := testutil.PNG(t, 3, 2)
	archive := testutil.BuildImageArchive(t, []string{"chapter_10", "chapter_2", "extras"}, []testutil.ArchiveImage{
		{Dir: 0, Data: png},
		{Dir: 1, Data: png},
		{Dir: 2, Data: []byte("not an image")},
	})
	archivePath := writeFixture(t, "book.yuf", archive)

	t.Run("inspect", func(t *testing.T) {
		out := run(t, "inspect", archivePath)
		assert.Contains(t, out, "image-archive")
		assert.Contains(t, out, "Chapters:    2")
	})

	t.Run("ls", func(t *testing.T) {
		out := run(t, "ls", archivePath)
		assert.Less(t, bytes.Index([]byte(out), []byte("chapter_2")), bytes.Index([]byte(out), []byte("chapter_10")))
	})

	t.Run("page", func(t *testing.T) {
		out := run(t, "page", archivePath, "--chapter", "1")
		assert.Contains(t, out, "Chapter 1/2: chapter_2")
		assert.Contains(t, out, "png 3x2")
	})

	t.Run("extract", func(t *testing.T) {
		dest := t.TempDir()
		run(t, "extract", archivePath, dest)
		_, err := os.Stat(filepath.Join(dest, "chapter_10", "0.png"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dest, "extras", "2.bin"))
		require.NoError(t, err)
	})

	t.Run("nested", func(t *testing.T) {
		container := testutil.BuildMediaContainer(t, []testutil.MediaFile{
			{Name: "clip.mp4", MIME: "video/mp4", Data: []byte("video")},
			{Name: "book.yuf", MIME: images.MediaType, Data: archive},
		})
		mediaPath := writeFixture(t, "media.yuffin", container)

		out := run(t, "ls", mediaPath)
		assert.Contains(t, out, "clip.mp4")
		assert.Contains(t, out, "archive")

		out = run(t, "ls", mediaPath, "--nested", "1")
		assert.Contains(t, out, "chapter_10")
		lsNested = -1
	})
}
