package handle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrStale is returned when a ticket was superseded before its content arrived.
	ErrStale = errors.New("handle: stale ticket")

	// ErrReleased is returned when reading from a released handle.
	ErrReleased = errors.New("handle: released")

	// ErrClosed is returned by Acquire after the manager was closed.
	ErrClosed = errors.New("handle: manager closed")
)

// Scope groups the slots of one view component, such as the tile grid or the
// lightbox, so they can be torn down together.
type Scope string

// Slot identifies one rendering position.
type Slot struct {
	Scope Scope
	Index int
}

// Content is the displayable data a handle refers to.
type Content struct {
	// Data gives random access to the bytes. It is not read by the manager.
	Data io.ReaderAt

	// Size is the length of Data.
	Size int64

	// ContentType is the sniffed or declared MIME type.
	ContentType string

	// Label is a short human-readable description.
	Label string
}

// Resolver produces the content for a slot.
type Resolver func(ctx context.Context) (Content, error)

// Handle is a reference to content installed in a slot.
type Handle struct {
	id       uuid.UUID
	slot     Slot
	content  Content
	released atomic.Bool
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string {
	return h.id.String()
}

// URL returns an opaque URL naming the handle.
func (h *Handle) URL() string {
	return "yuffin:handle/" + h.id.String()
}

// Slot returns the slot the handle was installed in.
func (h *Handle) Slot() Slot {
	return h.slot
}

// Content returns the handle's content descriptor.
func (h *Handle) Content() Content {
	return h.content
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Reader returns a reader over the handle's bytes.
// It fails with ErrReleased once the handle has been released.
func (h *Handle) Reader() (*io.SectionReader, error) {
	if h.released.Load() {
		return nil, ErrReleased
	}
	return io.NewSectionReader(h.content.Data, 0, h.content.Size), nil
}

// Ticket is a reservation of a slot for one load.
type Ticket struct {
	slot Slot
	gen  uint64
}

// Slot returns the reserved slot.
func (t Ticket) Slot() Slot {
	return t.slot
}

// Manager owns every handle created for one view.
// It is safe for concurrent use.
type Manager struct {
	mu          sync.Mutex
	generations map[Slot]uint64
	slots       map[Slot]*Handle
	outstanding map[uuid.UUID]*Handle
	closed      bool

	onRelease func(*Handle)
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithOnRelease sets a hook called once for every released handle, outside
// the manager's lock.
func WithOnRelease(fn func(*Handle)) Option {
	return func(m *Manager) {
		m.onRelease = fn
	}
}

// WithLogger sets the logger used for debug output.
// If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager returns an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		generations: make(map[Slot]uint64),
		slots:       make(map[Slot]*Handle),
		outstanding: make(map[uuid.UUID]*Handle),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// log returns the logger, falling back to a discard logger if nil.
func (m *Manager) log() *slog.Logger {
	if m.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.logger
}

// Reserve claims slot for a new load and supersedes any load in flight for it.
// The handle currently in the slot stays installed until the new one arrives.
func (m *Manager) Reserve(slot Slot) Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[slot]++
	return Ticket{slot: slot, gen: m.generations[slot]}
}

// Acquire installs a handle for c if t is still the slot's latest
// reservation, then releases the handle it replaced.
func (m *Manager) Acquire(t Ticket, c Content) (*Handle, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.generations[t.slot] != t.gen {
		m.mu.Unlock()
		return nil, ErrStale
	}
	h := &Handle{id: uuid.New(), slot: t.slot, content: c}
	prev := m.slots[t.slot]
	m.slots[t.slot] = h
	m.outstanding[h.id] = h
	var released []*Handle
	if prev != nil {
		released = m.detachLocked(prev)
	}
	m.mu.Unlock()

	m.log().Debug("handle acquired", "slot", t.slot.Scope, "index", t.slot.Index, "handle", h.id)
	m.notify(released)
	return h, nil
}

// Fail ends the load reserved by t without a result. If t is still the
// slot's latest reservation, the handle left in the slot is released, since
// it belongs to content the slot no longer shows. It reports whether a
// handle was released.
func (m *Manager) Fail(t Ticket) bool {
	m.mu.Lock()
	var released []*Handle
	if m.generations[t.slot] == t.gen {
		if h := m.slots[t.slot]; h != nil {
			released = m.detachLocked(h)
		}
	}
	m.mu.Unlock()
	m.notify(released)
	return len(released) > 0
}

// Load reserves slot, resolves its content and acquires a handle for it.
// A result that arrives after the slot was superseded fails with ErrStale.
// A failed resolve empties the slot unless a newer load owns it.
func (m *Manager) Load(ctx context.Context, slot Slot, resolve Resolver) (*Handle, error) {
	t := m.Reserve(slot)
	c, err := resolve(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		m.Fail(t)
		return nil, err
	}
	return m.Acquire(t, c)
}

// Release releases h. It reports false if h was already released.
func (m *Manager) Release(h *Handle) bool {
	if h == nil {
		return false
	}
	m.mu.Lock()
	released := m.detachLocked(h)
	m.mu.Unlock()
	m.notify(released)
	return len(released) > 0
}

// ReleaseSlot releases the handle in slot, if any, and supersedes any load
// in flight for it. It reports whether a handle was released.
func (m *Manager) ReleaseSlot(slot Slot) bool {
	m.mu.Lock()
	m.generations[slot]++
	var released []*Handle
	if h := m.slots[slot]; h != nil {
		released = m.detachLocked(h)
	}
	m.mu.Unlock()
	m.notify(released)
	return len(released) > 0
}

// ReleaseScope releases every handle in scope and supersedes the scope's
// loads in flight. It returns the number of handles released.
func (m *Manager) ReleaseScope(scope Scope) int {
	return m.releaseWhere(func(s Slot) bool { return s.Scope == scope }, false)
}

// ReleaseAll releases every outstanding handle and supersedes every load in flight.
func (m *Manager) ReleaseAll() int {
	return m.releaseWhere(func(Slot) bool { return true }, false)
}

// Close releases everything and rejects any later Acquire with ErrClosed.
func (m *Manager) Close() int {
	return m.releaseWhere(func(Slot) bool { return true }, true)
}

func (m *Manager) releaseWhere(match func(Slot) bool, closing bool) int {
	m.mu.Lock()
	if closing {
		m.closed = true
	}
	for slot := range m.generations {
		if match(slot) {
			m.generations[slot]++
		}
	}
	var released []*Handle
	for slot, h := range m.slots {
		if match(slot) {
			released = append(released, m.detachLocked(h)...)
		}
	}
	m.mu.Unlock()
	m.notify(released)
	return len(released)
}

// detachLocked marks h released and removes it from the tables.
// It returns h if this call released it. m.mu must be held.
func (m *Manager) detachLocked(h *Handle) []*Handle {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	delete(m.outstanding, h.id)
	if m.slots[h.slot] == h {
		delete(m.slots, h.slot)
	}
	return []*Handle{h}
}

func (m *Manager) notify(released []*Handle) {
	for _, h := range released {
		m.log().Debug("handle released", "slot", h.slot.Scope, "index", h.slot.Index, "handle", h.id)
		if m.onRelease != nil {
			m.onRelease(h)
		}
	}
}

// Outstanding returns the number of handles not yet released.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

// Current returns the handle installed in slot.
func (m *Manager) Current(slot Slot) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.slots[slot]
	return h, ok
}
