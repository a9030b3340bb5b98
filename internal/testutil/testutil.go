package testutil

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data     []byte
	sourceID string
	reads    atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{
		data:     data,
		sourceID: "mock:" + digest.FromBytes(data).Encoded(),
	}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.reads.Add(1)
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if off+int64(n) >= int64(len(m.data)) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// SourceID returns a stable identifier for the source data.
func (m *MockByteSource) SourceID() string {
	return m.sourceID
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// Reads returns the number of ReadAt calls served so far.
func (m *MockByteSource) Reads() int64 {
	return m.reads.Load()
}

// ShortByteSource returns at most Limit bytes per ReadAt without an error,
// simulating a misbehaving transport.
type ShortByteSource struct {
	*MockByteSource
	Limit int
}

// ReadAt reads at most Limit bytes.
func (s *ShortByteSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) > s.Limit {
		p = p[:s.Limit]
	}
	n, err := s.MockByteSource.ReadAt(p, off)
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// GatedByteSource blocks reads at gated offsets until the gate is opened.
// It lets tests hold an in-flight read while the caller changes state.
type GatedByteSource struct {
	*MockByteSource

	mu    sync.Mutex
	gates map[int64]chan struct{}
	hits  map[int64]chan struct{}
}

// NewGatedByteSource wraps data in a GatedByteSource with no gates.
func NewGatedByteSource(data []byte) *GatedByteSource {
	return &GatedByteSource{
		MockByteSource: NewMockByteSource(data),
		gates:          make(map[int64]chan struct{}),
		hits:           make(map[int64]chan struct{}),
	}
}

// Gate makes reads starting at off block. The returned channel is closed
// once a read has reached the gate; calling open lets blocked reads proceed.
func (g *GatedByteSource) Gate(off int64) (reached <-chan struct{}, open func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	hit := make(chan struct{})
	g.gates[off] = gate
	g.hits[off] = hit
	var once sync.Once
	return hit, func() { once.Do(func() { close(gate) }) }
}

// ReadAt blocks on a gate registered for off, then reads normally.
func (g *GatedByteSource) ReadAt(p []byte, off int64) (int, error) {
	g.mu.Lock()
	gate, gated := g.gates[off]
	hit := g.hits[off]
	if gated {
		delete(g.hits, off)
	}
	g.mu.Unlock()
	if gated {
		if hit != nil {
			close(hit)
		}
		<-gate
	}
	return g.MockByteSource.ReadAt(p, off)
}
