package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zbirow/yuffin"
	"github.com/zbirow/yuffin/cache"
	"github.com/zbirow/yuffin/cache/disk"
	yufhttp "github.com/zbirow/yuffin/http"
	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/media"
	"github.com/zbirow/yuffin/source"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openSource opens a local path or an HTTP(S) URL. Remote sources are
// wrapped in a block cache unless cache_blocks is zero, backed by a disk
// store when cache_dir is set.
func openSource(ctx context.Context, location string) (yuffin.ByteSource, io.Closer, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		f, err := source.OpenFile(location)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}

	opts := []yufhttp.Option{yufhttp.WithConditionalHeaders()}
	for k, v := range cfg.HTTPHeaders {
		opts = append(opts, yufhttp.WithHeader(k, v))
	}
	src, err := yufhttp.NewSource(ctx, location, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", location, err)
	}
	if cfg.CacheBlocks == 0 {
		return src, nopCloser{}, nil
	}
	var cacheOpts []cache.Option
	if cfg.CacheDir != "" {
		store, err := disk.New(cfg.CacheDir, disk.WithMaxBytes(cfg.CacheMaxBytes))
		if err != nil {
			return nil, nil, fmt.Errorf("open cache dir: %w", err)
		}
		cacheOpts = append(cacheOpts, cache.WithStore(store))
	}
	bc, err := cache.New(cfg.CacheBlocks, cacheOpts...)
	if err != nil {
		return nil, nil, err
	}
	cached, err := bc.Wrap(src, cache.WithBlockSize(cfg.BlockSize))
	if err != nil {
		return nil, nil, err
	}
	return cached, nopCloser{}, nil
}

// openContainer opens location and decodes it with the configured options.
func openContainer(ctx context.Context, location string) (*yuffin.Container, io.Closer, error) {
	src, closer, err := openSource(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	chapter, err := cfg.Chapter()
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	c, err := yuffin.Open(ctx, src,
		yuffin.WithLogger(slog.Default()),
		yuffin.WithImageOptions(images.WithChapterPattern(chapter)))
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	slog.Debug("container opened", "source", src.SourceID(), "format", c.Format.String())
	return c, closer, nil
}

// archiveFor returns the image archive of c. For a media container, nested
// selects the asset id of a nested archive.
func archiveFor(ctx context.Context, c *yuffin.Container, nested int) (*images.Index, error) {
	if c.Images != nil {
		if nested >= 0 {
			return nil, errors.New("--nested applies to media containers only")
		}
		return c.Images, nil
	}
	if nested < 0 {
		return nil, errors.New("media container: select a nested archive with --nested")
	}
	asset, err := lookupAsset(c.Media, nested)
	if err != nil {
		return nil, err
	}
	chapter, err := cfg.Chapter()
	if err != nil {
		return nil, err
	}
	return c.Media.OpenArchive(ctx, asset,
		images.WithLogger(slog.Default()),
		images.WithChapterPattern(chapter))
}

func lookupAsset(idx *media.Index, id int) (media.Asset, error) {
	asset, ok := idx.Lookup(id)
	if !ok {
		return media.Asset{}, fmt.Errorf("asset %d: not found", id)
	}
	return asset, nil
}
