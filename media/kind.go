package media

import (
	"strings"

	"github.com/zbirow/yuffin/images"
)

// Kind classifies an asset by its MIME type.
type Kind uint8

const (
	// KindUnsupported is any asset that is neither playable nor a nested archive.
	KindUnsupported Kind = iota

	// KindVideo is a video/* asset.
	KindVideo

	// KindAudio is an audio/* asset.
	KindAudio

	// KindNestedArchive is an image archive stored as an asset.
	KindNestedArchive
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindNestedArchive:
		return "archive"
	default:
		return "unsupported"
	}
}

// Playable reports whether the asset can be handed to a media player.
func (k Kind) Playable() bool {
	return k == KindVideo || k == KindAudio
}

// Classify maps a MIME type to its Kind. Parameters after ';' and letter
// case are ignored.
func Classify(mime string) Kind {
	base, _, _ := strings.Cut(mime, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	switch {
	case base == images.MediaType:
		return KindNestedArchive
	case strings.HasPrefix(base, "video/"):
		return KindVideo
	case strings.HasPrefix(base, "audio/"):
		return KindAudio
	default:
		return KindUnsupported
	}
}
