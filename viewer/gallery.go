package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/zbirow/yuffin/handle"
	"github.com/zbirow/yuffin/images"
	"github.com/zbirow/yuffin/view"
)

// ErrClosed is returned by operations on a closed Gallery or Player.
var ErrClosed = errors.New("viewer: closed")

// ErrNoLightbox is returned when stepping a lightbox that is not open.
var ErrNoLightbox = errors.New("viewer: lightbox not open")

var lightboxSlot = handle.Slot{Scope: ScopeLightbox}

// Tile is the render result of one displayed image.
type Tile struct {
	view.Item

	// Handle is the displayable resource, nil if Err is set.
	Handle *handle.Handle

	// Info describes the decoded image.
	Info images.ImageInfo

	// Err is the per-image failure, such as ErrTruncatedAsset or ErrUnsupportedAsset.
	Err error
}

// Gallery displays one image archive.
// It is not safe for concurrent use.
type Gallery struct {
	index    *images.Index
	state    *view.State
	handles  *handle.Manager
	lightbox *view.Lightbox
	budget   *semaphore.Weighted
	cfg      config
	rendered int
	closed   bool
	parent   *Player
}

// NewGallery returns a Gallery over idx showing the first grid page.
func NewGallery(idx *images.Index, opts ...Option) *Gallery {
	cfg := newConfig(opts)
	g := &Gallery{
		index:   idx,
		state:   view.New(idx, view.WithPageSize(cfg.pageSize)),
		handles: handle.NewManager(cfg.managerOptions()...),
		cfg:     cfg,
	}
	if cfg.readBudget > 0 {
		g.budget = semaphore.NewWeighted(cfg.readBudget)
	}
	return g
}

// Index returns the gallery's archive index.
func (g *Gallery) Index() *images.Index {
	return g.index
}

// State returns the navigation state. Changes take effect on the next Render.
func (g *Gallery) State() *view.State {
	return g.state
}

// Handles returns the manager owning the gallery's handles.
func (g *Gallery) Handles() *handle.Manager {
	return g.handles
}

// Render resolves every displayed image and installs a handle for each.
// Loads still in flight from an earlier Render are superseded, and slots
// no longer displayed are released. Per-image failures are reported on the
// Tile; only context cancellation fails the whole call.
func (g *Gallery) Render(ctx context.Context) ([]Tile, error) {
	if g.closed {
		return nil, ErrClosed
	}
	items := g.state.Displayed()
	for i := len(items); i < g.rendered; i++ {
		g.handles.ReleaseSlot(handle.Slot{Scope: ScopeTiles, Index: i})
	}
	g.rendered = len(items)

	tickets := make([]handle.Ticket, len(items))
	for i := range items {
		tickets[i] = g.handles.Reserve(handle.Slot{Scope: ScopeTiles, Index: i})
	}

	tiles := make([]Tile, len(items))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.concurrency)
	for i, item := range items {
		eg.Go(func() error {
			tiles[i] = g.renderTile(ctx, tickets[i], item)
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.cfg.log().Debug("gallery rendered",
		"mode", g.state.Mode().String(),
		"page", g.state.Page(),
		"tiles", len(tiles),
		"outstanding", g.handles.Outstanding())
	return tiles, nil
}

func (g *Gallery) renderTile(ctx context.Context, ticket handle.Ticket, item view.Item) Tile {
	tile := Tile{Item: item}
	c, info, err := g.resolve(ctx, item.Image)
	if err != nil {
		g.handles.Fail(ticket)
		tile.Info = info
		tile.Err = err
		return tile
	}
	h, err := g.handles.Acquire(ticket, c)
	if err != nil {
		tile.Err = err
		return tile
	}
	tile.Handle = h
	tile.Info = info
	return tile
}

// resolve reads one image and sniffs its format.
func (g *Gallery) resolve(ctx context.Context, img images.Image) (handle.Content, images.ImageInfo, error) {
	if g.budget != nil {
		rec, err := g.index.Locate(ctx, img)
		if err != nil {
			return handle.Content{}, images.ImageInfo{}, err
		}
		n := min(int64(rec.Size), g.cfg.readBudget)
		if err := g.budget.Acquire(ctx, n); err != nil {
			return handle.Content{}, images.ImageInfo{}, err
		}
		defer g.budget.Release(n)
	}
	res, err := g.index.Resolve(ctx, img)
	if err != nil {
		return handle.Content{}, images.ImageInfo{}, err
	}
	info, err := images.Probe(res.Data)
	if err != nil {
		return handle.Content{}, info, fmt.Errorf("image %d: %w", img.GlobalIndex, err)
	}
	return handle.Content{
		Data:        bytes.NewReader(res.Data),
		Size:        int64(len(res.Data)),
		ContentType: info.ContentType,
		Label:       fmt.Sprintf("image %d", img.GlobalIndex),
	}, info, nil
}

// OpenLightbox opens the lightbox at position pos of the displayed sequence
// and loads its image.
func (g *Gallery) OpenLightbox(ctx context.Context, pos int) (Tile, error) {
	if g.closed {
		return Tile{}, ErrClosed
	}
	lb, err := view.OpenLightbox(g.state.Sequence(), pos)
	if err != nil {
		return Tile{}, err
	}
	g.lightbox = lb
	return g.loadLightbox(ctx)
}

// StepLightbox moves the lightbox by delta, wrapping at either end, and
// loads the new image.
func (g *Gallery) StepLightbox(ctx context.Context, delta int) (Tile, error) {
	if g.closed {
		return Tile{}, ErrClosed
	}
	if g.lightbox == nil {
		return Tile{}, ErrNoLightbox
	}
	g.lightbox.Step(delta)
	return g.loadLightbox(ctx)
}

// loadLightbox releases the previous lightbox image before creating the next.
func (g *Gallery) loadLightbox(ctx context.Context) (Tile, error) {
	g.handles.ReleaseSlot(lightboxSlot)
	item := view.Item{Position: g.lightbox.Index(), Image: g.lightbox.Current()}
	tile := g.renderTile(ctx, g.handles.Reserve(lightboxSlot), item)
	if err := ctx.Err(); err != nil {
		return tile, err
	}
	return tile, nil
}

// Lightbox returns the open lightbox cursor, or nil.
func (g *Gallery) Lightbox() *view.Lightbox {
	return g.lightbox
}

// CloseLightbox closes the lightbox and releases its handle.
func (g *Gallery) CloseLightbox() {
	g.handles.ReleaseSlot(lightboxSlot)
	g.lightbox = nil
}

// Close releases every handle the gallery owns and detaches it from the
// Player that opened it. It is safe to call more than once.
func (g *Gallery) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.lightbox = nil
	n := g.handles.Close()
	if g.parent != nil {
		g.parent.detach(g)
		g.parent = nil
	}
	g.cfg.log().Debug("gallery closed", "released", n)
}
