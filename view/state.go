package view

import (
	"github.com/zbirow/yuffin/images"
)

const (
	// AllDirectories is the filter value that selects every image.
	AllDirectories = -1

	// DefaultPageSize is the number of grid tiles per page.
	DefaultPageSize = 36
)

// Mode selects how the filtered images are laid out.
type Mode uint8

const (
	// ModeGrid shows the filtered images one page at a time.
	ModeGrid Mode = iota

	// ModeChapter shows one chapter at a time, unpaginated.
	ModeChapter
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeChapter {
		return "chapter"
	}
	return "grid"
}

// Catalog is the part of an image archive index a State navigates.
// *images.Index implements it.
type Catalog interface {
	Images() []images.Image
	Directories() []string
	Chapters() []images.Chapter
}

// Item is one image placed in the displayed sequence.
type Item struct {
	// Position is the image's index within Sequence.
	Position int

	images.Image
}

// State is the navigation state of one opened image archive.
// It is not safe for concurrent use.
type State struct {
	all      []images.Image
	dirCount int
	chapters []images.Chapter
	pageSize int

	mode          Mode
	filter        int
	filtered      []images.Image
	page          int
	chapter       int
	chapterImages []images.Image
}

// Option configures a State.
type Option func(*State)

// WithPageSize sets the number of grid tiles per page.
// Values below 1 keep the default.
func WithPageSize(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New returns a State showing every image of cat in grid mode, page 1.
func New(cat Catalog, opts ...Option) *State {
	s := &State{
		all:      cat.Images(),
		dirCount: len(cat.Directories()),
		chapters: cat.Chapters(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.applyFilter(AllDirectories)
	return s
}

// PageSize returns the number of grid tiles per page.
func (s *State) PageSize() int {
	return s.pageSize
}

// Filter returns the selected directory id, or AllDirectories.
func (s *State) Filter() int {
	return s.filter
}

// SetFilter selects the images of one directory, or all of them.
// The page is reset to 1 and, in chapter mode, the chapter follows the filter.
func (s *State) SetFilter(dirID int) error {
	if dirID != AllDirectories && (dirID < 0 || dirID >= s.dirCount) {
		return ErrInvalidFilter
	}
	s.applyFilter(dirID)
	if s.mode == ModeChapter {
		s.syncChapter()
	}
	return nil
}

func (s *State) applyFilter(dirID int) {
	s.filter = dirID
	s.page = 1
	if dirID == AllDirectories {
		s.filtered = s.all
		return
	}
	s.filtered = imagesIn(s.all, dirID)
}

// Filtered returns the images selected by the filter in index order.
// The returned slice must not be modified.
func (s *State) Filtered() []images.Image {
	return s.filtered
}

// Mode returns the display mode.
func (s *State) Mode() Mode {
	return s.mode
}

// SetMode switches the display mode. Entering chapter mode selects the
// chapter matching the filter, or the first chapter.
func (s *State) SetMode(m Mode) {
	s.mode = m
	if m == ModeChapter {
		s.syncChapter()
		return
	}
	s.chapterImages = nil
}

func (s *State) syncChapter() {
	s.chapter = 0
	for i, ch := range s.chapters {
		if int(ch.ID) == s.filter {
			s.chapter = i
			break
		}
	}
	s.loadChapter()
}

func (s *State) loadChapter() {
	if len(s.chapters) == 0 {
		s.chapterImages = nil
		return
	}
	s.chapterImages = imagesIn(s.all, int(s.chapters[s.chapter].ID))
}

// Chapters returns the archive's chapters in natural order.
func (s *State) Chapters() []images.Chapter {
	return s.chapters
}

// CurrentChapter returns the selected chapter. It reports false when the
// archive has no chapters.
func (s *State) CurrentChapter() (images.Chapter, bool) {
	if len(s.chapters) == 0 {
		return images.Chapter{}, false
	}
	return s.chapters[s.chapter], true
}

// NextChapter moves to the following chapter and selects its directory as
// the filter. It does nothing at the last chapter and reports whether it moved.
func (s *State) NextChapter() bool {
	return s.moveChapter(1)
}

// PrevChapter moves to the preceding chapter. It does nothing at the first
// chapter and reports whether it moved.
func (s *State) PrevChapter() bool {
	return s.moveChapter(-1)
}

func (s *State) moveChapter(delta int) bool {
	next := s.chapter + delta
	if next < 0 || next >= len(s.chapters) {
		return false
	}
	s.chapter = next
	s.applyFilter(int(s.chapters[next].ID))
	if s.mode == ModeChapter {
		s.loadChapter()
	}
	return true
}

// Page returns the current grid page, starting at 1.
func (s *State) Page() int {
	return s.page
}

// PageCount returns the number of grid pages. An empty selection has none.
func (s *State) PageCount() int {
	return (len(s.filtered) + s.pageSize - 1) / s.pageSize
}

// SetPage moves to page n, clamped to the valid range.
func (s *State) SetPage(n int) {
	s.page = max(1, min(n, s.PageCount()))
}

// NextPage moves forward one page and reports whether it moved.
func (s *State) NextPage() bool {
	if s.page >= s.PageCount() {
		return false
	}
	s.page++
	return true
}

// PrevPage moves back one page and reports whether it moved.
func (s *State) PrevPage() bool {
	if s.page <= 1 {
		return false
	}
	s.page--
	return true
}

// PageItems returns the filtered images on the current page and the
// position of the first of them within Filtered.
func (s *State) PageItems() ([]images.Image, int) {
	start := (s.page - 1) * s.pageSize
	if start >= len(s.filtered) {
		return nil, start
	}
	end := min(start+s.pageSize, len(s.filtered))
	return s.filtered[start:end], start
}

// Sequence returns the images the lightbox steps through: the current
// chapter in chapter mode, the filtered images otherwise.
func (s *State) Sequence() []images.Image {
	if s.mode == ModeChapter && len(s.chapters) > 0 {
		return s.chapterImages
	}
	return s.filtered
}

// Displayed returns the images to render now. Grid mode yields the current
// page. Chapter mode yields the whole chapter, or the whole filtered
// selection if the archive has no chapters.
func (s *State) Displayed() []Item {
	var (
		imgs  []images.Image
		start int
	)
	if s.mode == ModeGrid {
		imgs, start = s.PageItems()
	} else {
		imgs = s.Sequence()
	}
	items := make([]Item, len(imgs))
	for i, img := range imgs {
		items[i] = Item{Position: start + i, Image: img}
	}
	return items
}

func imagesIn(all []images.Image, dirID int) []images.Image {
	var out []images.Image
	for _, img := range all {
		if int(img.DirectoryID) == dirID {
			out = append(out, img)
		}
	}
	return out
}
