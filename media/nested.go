package media

import (
	"context"
	"fmt"

	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/source"
)

// OpenArchive opens a nested image archive asset in place. Image offsets
// inside the archive are relative to the start of the asset.
// It fails with ErrUnsupportedAsset if asset is not a nested archive.
func (idx *Index) OpenArchive(ctx context.Context, asset Asset, opts ...images.Option) (*images.Index, error) {
	if asset.Kind != KindNestedArchive {
		return nil, fmt.Errorf("asset %d (%s): %w: %s is not an image archive", asset.ID, asset.Name, ErrUnsupportedAsset, asset.MIME)
	}
	if _, err := idx.Section(asset); err != nil {
		return nil, err
	}
	sec, err := source.NewSection(idx.source, int64(asset.Offset), int64(asset.Size)) //nolint:gosec // bounded by Section
	if err != nil {
		return nil, fmt.Errorf("asset %d (%s): %w", asset.ID, asset.Name, err)
	}
	arc, err := images.Open(ctx, sec, opts...)
	if err != nil {
		return nil, fmt.Errorf("open nested archive %d (%s): %w", asset.ID, asset.Name, err)
	}
	idx.log().Debug("nested archive opened", "asset", asset.ID, "images", arc.Len())
	return arc, nil
}
