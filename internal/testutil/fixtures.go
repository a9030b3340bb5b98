package testutil

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// MediaFile describes one asset of a media container fixture.
type MediaFile struct {
	Name string
	MIME string
	Data []byte
}

type mediaEntry struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
	MIME   string `json:"mime"`
	Offset int    `json:"offset"`
}

// BuildMediaContainer lays out files the way the packer does: a 16-byte
// header, the base64 index block, then every asset back to back. Offsets are
// recomputed until the encoded index length stops changing.
func BuildMediaContainer(tb testing.TB, files []MediaFile) []byte {
	tb.Helper()

	var block []byte
	lastLen := -1
	for len(block) != lastLen {
		lastLen = len(block)
		offset := 16 + lastLen
		entries := make([]mediaEntry, len(files))
		for i, f := range files {
			entries[i] = mediaEntry{ID: i, Name: f.Name, Size: len(f.Data), MIME: f.MIME, Offset: offset}
			offset += len(f.Data)
		}
		raw, err := json.Marshal(entries)
		if err != nil {
			tb.Fatalf("marshal media index: %v", err)
		}
		block = []byte(base64.StdEncoding.EncodeToString(raw))
	}

	out := MediaHeader(block)
	for _, f := range files {
		out = append(out, f.Data...)
	}
	return out
}

// MediaHeader returns a media container header followed by the given index block.
func MediaHeader(block []byte) []byte {
	out := make([]byte, 16, 16+len(block))
	copy(out, "YUFFIN")
	binary.BigEndian.PutUint64(out[8:], uint64(len(block)))
	return append(out, block...)
}

// MediaIndexBlock base64-encodes a raw JSON index for corrupt-input tests.
func MediaIndexBlock(rawJSON string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(rawJSON)))
}

// ArchiveImage describes one image of an image archive fixture.
type ArchiveImage struct {
	Dir      uint16
	Data     []byte
	Reserved uint32
}

// ImageArchiveLayout reports where the fixture builder placed each structure.
type ImageArchiveLayout struct {
	ImageOffsets    []uint32
	DirTableOffset  uint64
	FileIndexOffset uint64
}

// BuildImageArchive builds an image archive with the header, image records,
// the NUL-terminated directory table and the file index, in that order.
func BuildImageArchive(tb testing.TB, dirs []string, images []ArchiveImage) []byte {
	tb.Helper()
	data, _ := BuildImageArchiveLayout(tb, dirs, images)
	return data
}

// BuildImageArchiveLayout is BuildImageArchive that also returns the layout.
func BuildImageArchiveLayout(tb testing.TB, dirs []string, images []ArchiveImage) ([]byte, ImageArchiveLayout) {
	tb.Helper()

	var buf bytes.Buffer
	buf.Write(make([]byte, 38))

	var layout ImageArchiveLayout
	for _, img := range images {
		layout.ImageOffsets = append(layout.ImageOffsets, uint32(buf.Len()))
		var sub [8]byte
		binary.LittleEndian.PutUint32(sub[0:], img.Reserved)
		binary.LittleEndian.PutUint32(sub[4:], uint32(len(img.Data)))
		buf.Write(sub[:])
		buf.Write(img.Data)
	}

	layout.DirTableOffset = uint64(buf.Len())
	for _, d := range dirs {
		buf.WriteString(d)
		buf.WriteByte(0)
	}

	layout.FileIndexOffset = uint64(buf.Len())
	for i, img := range images {
		var entry [8]byte
		binary.LittleEndian.PutUint32(entry[0:], layout.ImageOffsets[i])
		binary.LittleEndian.PutUint16(entry[4:], img.Dir)
		buf.Write(entry[:])
	}

	out := buf.Bytes()
	PutImageArchiveHeader(out, uint64(len(images)), uint32(len(dirs)), layout.DirTableOffset, layout.FileIndexOffset)
	return out, layout
}

// PutImageArchiveHeader writes an image archive header into the first 38 bytes of dst.
func PutImageArchiveHeader(dst []byte, imageCount uint64, dirCount uint32, dirTableOffset, fileIndexOffset uint64) {
	copy(dst, "Yuffin")
	binary.LittleEndian.PutUint64(dst[10:], imageCount)
	binary.LittleEndian.PutUint32(dst[18:], dirCount)
	binary.LittleEndian.PutUint64(dst[22:], dirTableOffset)
	binary.LittleEndian.PutUint64(dst[30:], fileIndexOffset)
}

// SeqImages returns n images spread over dirs round-robin, each holding a
// small distinct payload.
func SeqImages(n int, dirs ...uint16) []ArchiveImage {
	if len(dirs) == 0 {
		dirs = []uint16{0}
	}
	images := make([]ArchiveImage, n)
	for i := range images {
		images[i] = ArchiveImage{
			Dir:  dirs[i%len(dirs)],
			Data: []byte(strings.Repeat(string(rune('a'+i%26)), 1+i%7)),
		}
	}
	return images
}

// PNG encodes a solid w×h PNG image.
func PNG(tb testing.TB, w, h int) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
