package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/http"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// ImageInfo describes image metadata. Width and Height are zero for formats
// that can be displayed but not decoded here, such as AVIF and SVG.
type ImageInfo struct {
	ContentType string
	Format      string
	Width       int
	Height      int
}

// Ext returns a file extension for the image format, including the dot.
func (i ImageInfo) Ext() string {
	switch i.Format {
	case "jpeg":
		return ".jpg"
	case "":
		return ".bin"
	default:
		return "." + i.Format
	}
}

// Probe sniffs the content type and dimensions of image data without
// decoding pixels. AVIF, SVG and ICO images are recognized by signature and
// reported without dimensions. Anything else that does not decode fails
// with ErrUnsupportedAsset.
func Probe(data []byte) (ImageInfo, error) {
	sniffed := http.DetectContentType(data)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if info, ok := sniffUndecoded(data, sniffed); ok {
			return info, nil
		}
		return ImageInfo{ContentType: sniffed}, fmt.Errorf("%w: %v", ErrUnsupportedAsset, err)
	}
	info := ImageInfo{
		ContentType: "image/" + format,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	if sniffed != "application/octet-stream" {
		info.ContentType = sniffed
	}
	return info, nil
}

// sniffUndecoded recognizes image formats that have no registered decoder.
// A format that has one and still failed to decode is corrupt, not unknown.
func sniffUndecoded(data []byte, sniffed string) (ImageInfo, bool) {
	switch {
	case isAVIF(data):
		return ImageInfo{ContentType: "image/avif", Format: "avif"}, true
	case isSVG(data):
		return ImageInfo{ContentType: "image/svg+xml", Format: "svg"}, true
	case sniffed == "image/x-icon":
		return ImageInfo{ContentType: sniffed, Format: "ico"}, true
	}
	return ImageInfo{}, false
}

func isAVIF(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "avif" || brand == "avis"
}

func isSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimLeft(head, " \t\r\n")
	return bytes.HasPrefix(head, []byte("<")) && bytes.Contains(head, []byte("<svg"))
}
