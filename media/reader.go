package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/zbirow/yuffin/internal/sizing"
	"github.com/zbirow/yuffin/internal/yuftype"
)

const (
	// Signature is the magic prefix of a media container.
	Signature = "YUFFIN"

	// HeaderSize is the size of the fixed container header.
	HeaderSize = 16
)

// ByteSource provides random access to container bytes.
type ByteSource = yuftype.ByteSource

// Asset is one entry of the container index.
type Asset struct {
	// ID is the identifier written by the packer, or the entry position if absent.
	ID int

	// Name is the original file name.
	Name string

	// Offset is the absolute offset of the asset bytes within the source.
	Offset uint64

	// Size is the asset length in bytes.
	Size uint64

	// MIME is the declared MIME type.
	MIME string

	// Kind is the classification of MIME.
	Kind Kind
}

// End returns the offset just past the asset bytes.
func (a Asset) End() (int64, error) {
	return sizing.End(a.Offset, a.Size, ErrTruncatedAsset)
}

type indexEntry struct {
	ID     *int   `json:"id"`
	Name   string `json:"name"`
	Size   uint64 `json:"size"`
	MIME   string `json:"mime"`
	Offset uint64 `json:"offset"`
}

// Index is the decoded index of one media container.
// It is immutable after Open and safe for concurrent use.
type Index struct {
	source       ByteSource
	assets       []Asset
	byID         map[int]int
	maxIndexSize uint64
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (idx *Index) log() *slog.Logger {
	if idx.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return idx.logger
}

// MatchSignature reports whether magic starts with the media container signature.
func MatchSignature(magic []byte) bool {
	return bytes.HasPrefix(magic, []byte(Signature))
}

// Open decodes the header and index of the media container in src.
// Asset bodies are not read.
func Open(ctx context.Context, src ByteSource, opts ...Option) (*Index, error) {
	idx := &Index{
		source:       src,
		maxIndexSize: DefaultMaxIndexSize,
	}
	for _, opt := range opts {
		opt(idx)
	}

	size := src.Size()
	magic, err := yuftype.ReadRange(ctx, src, 0, min(int64(len(Signature)), size))
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !MatchSignature(magic) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSignature, magic)
	}
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes, need %d", ErrCorruptIndex, size, HeaderSize)
	}
	hdr, err := yuftype.ReadRange(ctx, src, 0, HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	indexLen := binary.BigEndian.Uint64(hdr[8:])
	if idx.maxIndexSize > 0 && indexLen > idx.maxIndexSize {
		return nil, fmt.Errorf("%w: index block of %d bytes exceeds limit %d", ErrSizeOverflow, indexLen, idx.maxIndexSize)
	}
	end, err := sizing.End(HeaderSize, indexLen, ErrOutOfBounds)
	if err != nil || end > size {
		return nil, fmt.Errorf("%w: %w: index block of %d bytes exceeds source size %d",
			ErrCorruptIndex, ErrOutOfBounds, indexLen, size)
	}
	block, err := yuftype.ReadRange(ctx, src, HeaderSize, end-HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read index block: %w", err)
	}

	assets, err := decodeIndex(block)
	if err != nil {
		return nil, err
	}
	idx.assets = assets
	idx.byID = make(map[int]int, len(assets))
	for i, a := range assets {
		if _, dup := idx.byID[a.ID]; dup {
			idx.log().Debug("duplicate asset id", "id", a.ID, "position", i)
			continue
		}
		idx.byID[a.ID] = i
	}

	idx.log().Debug("media container opened",
		"source", src.SourceID(),
		"assets", len(assets),
		"index_bytes", indexLen)
	return idx, nil
}

// decodeIndex decodes the base64 JSON index block.
func decodeIndex(block []byte) ([]Asset, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(block)))
	n, err := base64.StdEncoding.Decode(raw, stripSpace(block))
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %w", ErrCorruptIndex, err)
	}

	var entries []*indexEntry
	if err := json.Unmarshal(raw[:n], &entries); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", ErrCorruptIndex, err)
	}
	assets := make([]Asset, len(entries))
	for i, e := range entries {
		if e == nil {
			return nil, fmt.Errorf("%w: entry %d is null", ErrCorruptIndex, i)
		}
		id := i
		if e.ID != nil {
			id = *e.ID
		}
		assets[i] = Asset{
			ID:     id,
			Name:   e.Name,
			Offset: e.Offset,
			Size:   e.Size,
			MIME:   e.MIME,
			Kind:   Classify(e.MIME),
		}
	}
	return assets, nil
}

// stripSpace drops ASCII whitespace, which decoders in browsers tolerate.
func stripSpace(b []byte) []byte {
	if bytes.IndexAny(b, " \t\r\n\f") < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n', '\f':
		default:
			out = append(out, c)
		}
	}
	return out
}

// Source returns the byte source the index was opened from.
func (idx *Index) Source() ByteSource {
	return idx.source
}

// Len returns the number of assets.
func (idx *Index) Len() int {
	return len(idx.assets)
}

// Assets returns a copy of the assets in index order.
func (idx *Index) Assets() []Asset {
	return append([]Asset(nil), idx.assets...)
}

// Asset returns the asset at position i.
func (idx *Index) Asset(i int) (Asset, bool) {
	if i < 0 || i >= len(idx.assets) {
		return Asset{}, false
	}
	return idx.assets[i], true
}

// Lookup returns the first asset with the given id.
func (idx *Index) Lookup(id int) (Asset, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Asset{}, false
	}
	return idx.assets[i], true
}

// Section returns a reader over the bytes of asset without reading them.
// It fails with ErrTruncatedAsset if the asset does not fit in the source.
func (idx *Index) Section(asset Asset) (*io.SectionReader, error) {
	end, err := asset.End()
	if err != nil {
		return nil, fmt.Errorf("asset %d (%s): %w", asset.ID, asset.Name, err)
	}
	if size := idx.source.Size(); end > size {
		return nil, fmt.Errorf("asset %d (%s): %w: %d bytes at %d exceeds source size %d",
			asset.ID, asset.Name, ErrTruncatedAsset, asset.Size, asset.Offset, size)
	}
	return io.NewSectionReader(idx.source, int64(asset.Offset), int64(asset.Size)), nil //nolint:gosec // bounded by End above
}

// ReadAsset reads the whole asset into memory.
func (idx *Index) ReadAsset(ctx context.Context, asset Asset) ([]byte, error) {
	if _, err := idx.Section(asset); err != nil {
		return nil, err
	}
	data, err := yuftype.ReadRange(ctx, idx.source, int64(asset.Offset), int64(asset.Size)) //nolint:gosec // bounded by Section
	if err != nil {
		return nil, fmt.Errorf("asset %d (%s): %w", asset.ID, asset.Name, err)
	}
	return data, nil
}
