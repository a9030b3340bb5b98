package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/zbirow/yuffin/handle"
	"github.com/zbirow/yuffin/media"
)

var playerSlot = handle.Slot{Scope: ScopePlayer}

// Player plays assets of one media container and opens its nested archives.
type Player struct {
	index   *media.Index
	handles *handle.Manager
	cfg     config
	opts    []Option

	mu        sync.Mutex
	galleries map[*Gallery]struct{}
	closed    bool
}

// NewPlayer returns a Player over idx. The options also apply to every
// Gallery opened through it.
func NewPlayer(idx *media.Index, opts ...Option) *Player {
	cfg := newConfig(opts)
	return &Player{
		index:     idx,
		handles:   handle.NewManager(cfg.managerOptions()...),
		cfg:       cfg,
		opts:      opts,
		galleries: make(map[*Gallery]struct{}),
	}
}

// Index returns the player's media index.
func (p *Player) Index() *media.Index {
	return p.index
}

// Handles returns the manager owning the player's handle.
func (p *Player) Handles() *handle.Manager {
	return p.handles
}

// Play installs a handle for a video or audio asset, replacing the asset
// currently playing. Other kinds fail with ErrUnsupportedAsset.
func (p *Player) Play(ctx context.Context, asset media.Asset) (*handle.Handle, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}
	if !asset.Kind.Playable() {
		return nil, fmt.Errorf("asset %d (%s): %w: kind %s", asset.ID, asset.Name, media.ErrUnsupportedAsset, asset.Kind)
	}
	h, err := p.handles.Load(ctx, playerSlot, func(context.Context) (handle.Content, error) {
		r, err := p.index.Section(asset)
		if err != nil {
			return handle.Content{}, err
		}
		return handle.Content{Data: r, Size: r.Size(), ContentType: asset.MIME, Label: asset.Name}, nil
	})
	if err != nil {
		return nil, err
	}
	p.cfg.log().Debug("playing asset", "asset", asset.ID, "name", asset.Name, "kind", asset.Kind.String())
	return h, nil
}

// Playing returns the handle of the asset currently playing.
func (p *Player) Playing() (*handle.Handle, bool) {
	return p.handles.Current(playerSlot)
}

// Stop releases the playing asset's handle. It reports whether anything was playing.
func (p *Player) Stop() bool {
	return p.handles.ReleaseSlot(playerSlot)
}

// OpenGallery stops playback and opens a nested image archive asset in a
// new Gallery owned by the player.
func (p *Player) OpenGallery(ctx context.Context, asset media.Asset) (*Gallery, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}
	arc, err := p.index.OpenArchive(ctx, asset, p.cfg.imageOpts...)
	if err != nil {
		return nil, err
	}
	p.Stop()

	g := NewGallery(arc, p.opts...)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		g.Close()
		return nil, ErrClosed
	}
	g.parent = p
	p.galleries[g] = struct{}{}
	return g, nil
}

// Galleries returns the number of open galleries.
func (p *Player) Galleries() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.galleries)
}

func (p *Player) detach(g *Gallery) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.galleries, g)
}

func (p *Player) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close closes every open gallery and releases the player's handle.
// It is safe to call more than once.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	galleries := make([]*Gallery, 0, len(p.galleries))
	for g := range p.galleries {
		galleries = append(galleries, g)
	}
	p.mu.Unlock()

	for _, g := range galleries {
		g.Close()
	}
	p.handles.Close()
	p.cfg.log().Debug("player closed", "galleries", len(galleries))
}
