package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/media"
)

var (
	extractNested    int
	extractOverwrite bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|url> <dir>",
	Short: "Write every asset or image to a directory",
	Long: `extract writes the assets of a media container, or the images of an
image archive, into dir. Media assets keep their stored names. Images are
written to <directory>/<global index><ext>, with the extension taken from
the decoded image format.

Existing files are skipped unless --overwrite is set. Entries that cannot
be read or whose names would escape dir are reported and skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, closer, err := openContainer(ctx, args[0])
		if err != nil {
			return err
		}
		defer closer.Close()
		dest := args[1]

		start := time.Now()
		var (
			stats media.ExtractStats
			bar   *Progress
		)
		if c.Media != nil && extractNested < 0 {
			var total uint64
			for _, a := range c.Media.Assets() {
				total += a.Size
			}
			bar = NewProgress(int64(total), !noProgress) //nolint:gosec // asset sizes are bounded by the source size
			stats, err = c.Media.Extract(ctx, dest,
				media.ExtractWithOverwrite(extractOverwrite),
				media.ExtractWithProgress(func(e media.ProgressEvent) { bar.Add(int64(e.Delta), e.Path) })) //nolint:gosec // deltas are copy buffer sized
		} else {
			idx, aerr := archiveFor(ctx, c, extractNested)
			if aerr != nil {
				return aerr
			}
			bar = NewProgress(0, !noProgress)
			stats, err = idx.Extract(ctx, dest,
				images.ExtractWithOverwrite(extractOverwrite),
				images.ExtractWithProgress(func(e images.ProgressEvent) { bar.Add(int64(e.Delta), e.Path) })) //nolint:gosec // deltas are copy buffer sized
		}
		bar.Finish()
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}

		for _, ferr := range stats.Failed {
			slog.Warn("entry skipped", "error", ferr)
		}
		slog.Info("extraction complete",
			"dest", dest,
			"files", stats.Files,
			"bytes", humanize.IBytes(stats.Bytes),
			"skipped", stats.Skipped,
			"failed", len(stats.Failed),
			"duration", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractNested, "nested", -1, "asset id of a nested image archive to extract")
	extractCmd.Flags().BoolVar(&extractOverwrite, "overwrite", false, "overwrite existing files")
}
