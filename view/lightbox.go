package view

import (
	"strconv"

	"github.com/zbirow/yuffin/images"
)

// Lightbox is a cursor over a fixed sequence of images that wraps at both ends.
type Lightbox struct {
	seq []images.Image
	pos int
}

// OpenLightbox returns a cursor over seq positioned at i.
func OpenLightbox(seq []images.Image, i int) (*Lightbox, error) {
	if len(seq) == 0 {
		return nil, ErrEmptySequence
	}
	if i < 0 || i >= len(seq) {
		return nil, ErrOutOfRange
	}
	return &Lightbox{seq: seq, pos: i}, nil
}

// Step moves the cursor by delta positions, wrapping around either end,
// and returns the new current image.
func (l *Lightbox) Step(delta int) images.Image {
	n := len(l.seq)
	l.pos = ((l.pos+delta)%n + n) % n
	return l.seq[l.pos]
}

// Current returns the image under the cursor.
func (l *Lightbox) Current() images.Image {
	return l.seq[l.pos]
}

// Index returns the cursor position.
func (l *Lightbox) Index() int {
	return l.pos
}

// Len returns the sequence length.
func (l *Lightbox) Len() int {
	return len(l.seq)
}

// Counter returns the one-based position as "i / n".
func (l *Lightbox) Counter() string {
	return strconv.Itoa(l.pos+1) + " / " + strconv.Itoa(len(l.seq))
}
