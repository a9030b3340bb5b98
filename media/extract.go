package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/zbirow/yuffin/internal/sink"
)

// ExtractOption configures Extract.
type ExtractOption = sink.Option

// ExtractStats summarizes an extraction.
type ExtractStats = sink.Stats

// ProgressEvent reports bytes written for one asset.
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

// Extract writes every asset to destDir under its own name.
//
// Assets whose name is not a plain file name, and assets that extend past the
// end of the source, are skipped and reported in ExtractStats.Failed. Context
// cancellation and filesystem errors abort the extraction.
func (idx *Index) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	var stats ExtractStats
	s, err := sink.New(destDir, opts...)
	if err != nil {
		return stats, err
	}

	for _, asset := range idx.assets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !isBaseName(asset.Name) {
			stats.Failed = append(stats.Failed, fmt.Errorf("asset %d: %w",
				asset.ID, &fs.PathError{Op: "extract", Path: asset.Name, Err: fs.ErrInvalid}))
			continue
		}
		r, err := idx.Section(asset)
		if err != nil {
			if errors.Is(err, ErrTruncatedAsset) {
				idx.log().Debug("skipping truncated asset", "asset", asset.ID, "name", asset.Name)
				stats.Failed = append(stats.Failed, err)
				continue
			}
			return stats, err
		}
		if !s.ShouldWrite(asset.Name) {
			stats.Skipped++
			continue
		}
		n, err := s.Write(ctx, asset.Name, r, asset.Size)
		if err != nil {
			return stats, fmt.Errorf("extract asset %d: %w", asset.ID, err)
		}
		stats.Files++
		stats.Bytes += n
	}

	idx.log().Debug("media container extracted",
		"dest", destDir,
		"files", stats.Files,
		"skipped", stats.Skipped,
		"failed", len(stats.Failed))
	return stats, nil
}

// isBaseName reports whether name is a single path element that stays inside
// the destination directory on every platform.
func isBaseName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\:`) && fs.ValidPath(name)
}
