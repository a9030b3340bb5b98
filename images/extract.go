package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/zbirow/yuffin/internal/sink"
)

// ExtractOption configures Extract.
type ExtractOption = sink.Option

// ExtractStats summarizes an extraction.
type ExtractStats = sink.Stats

// ProgressEvent reports bytes written for one image.
type ProgressEvent = sink.ProgressEvent

// ExtractWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return sink.WithOverwrite(overwrite)
}

// ExtractWithProgress sets a callback that receives progress updates.
func ExtractWithProgress(fn func(ProgressEvent)) ExtractOption {
	return sink.WithProgress(fn)
}

// Extract writes every image to destDir as <directory label>/<global index><ext>,
// where the extension comes from the sniffed image format.
//
// Images that cannot be resolved, and directory names that would escape
// destDir, are skipped and reported in ExtractStats.Failed. Context
// cancellation and filesystem errors abort the extraction.
func (idx *Index) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	var stats ExtractStats
	s, err := sink.New(destDir, opts...)
	if err != nil {
		return stats, err
	}
	width := len(strconv.Itoa(max(len(idx.images)-1, 0)))

	for _, img := range idx.images {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		res, err := idx.Resolve(ctx, img)
		if err != nil {
			if errors.Is(err, ErrTruncatedAsset) || errors.Is(err, ErrSizeOverflow) {
				stats.Failed = append(stats.Failed, err)
				continue
			}
			return stats, err
		}
		info, _ := Probe(res.Data) //nolint:errcheck // unknown formats are written as .bin

		name := path.Join(idx.DirectoryLabel(img.DirectoryID), fmt.Sprintf("%0*d%s", width, img.GlobalIndex, info.Ext()))
		if !s.ShouldWrite(name) {
			stats.Skipped++
			continue
		}
		n, err := s.Write(ctx, name, bytes.NewReader(res.Data), uint64(len(res.Data)))
		if err != nil {
			if errors.Is(err, fs.ErrInvalid) {
				stats.Failed = append(stats.Failed, fmt.Errorf("image %d: %w", img.GlobalIndex, err))
				continue
			}
			return stats, fmt.Errorf("extract image %d: %w", img.GlobalIndex, err)
		}
		stats.Files++
		stats.Bytes += n
	}

	idx.log().Debug("image archive extracted",
		"dest", destDir,
		"files", stats.Files,
		"skipped", stats.Skipped,
		"failed", len(stats.Failed))
	return stats, nil
}
