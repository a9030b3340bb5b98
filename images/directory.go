package images

import (
	"cmp"
	"regexp"
	"slices"

	"github.com/zbirow/yuffin/internal/natsort"
)

// RootLabel is the display name of the unnamed root directory.
const RootLabel = "[root]"

// Directory is one entry of the directory table.
type Directory struct {
	ID   uint16
	Name string
}

// Label returns the display name of the directory.
func (d Directory) Label() string {
	if d.Name == "" || d.Name == "." {
		return RootLabel
	}
	return d.Name
}

// Chapter is a directory whose name matches the chapter pattern.
type Chapter struct {
	// Position is the chapter's place in natural order.
	Position int

	Directory
}

// Directories returns the directory table in stored order; position is the directory id.
// The returned slice must not be modified.
func (idx *Index) Directories() []string {
	return idx.directories
}

// Directory returns the directory with the given id.
func (idx *Index) Directory(id uint16) (Directory, bool) {
	if int(id) >= len(idx.directories) {
		return Directory{}, false
	}
	return Directory{ID: id, Name: idx.directories[id]}, true
}

// DirectoryLabel returns the display name of the directory with the given
// id, or an empty string if there is none.
func (idx *Index) DirectoryLabel(id uint16) string {
	d, ok := idx.Directory(id)
	if !ok {
		return ""
	}
	return d.Label()
}

// SortedDirectories returns every directory in natural name order.
// Directories with equal names keep their table order.
func (idx *Index) SortedDirectories() []Directory {
	dirs := make([]Directory, len(idx.directories))
	for i, name := range idx.directories {
		dirs[i] = Directory{ID: uint16(i), Name: name} //nolint:gosec // ids are bounded by the u16 index entries
	}
	slices.SortStableFunc(dirs, compareDirectory)
	return dirs
}

// Chapters returns the chapter directories in natural order.
// The returned slice must not be modified.
func (idx *Index) Chapters() []Chapter {
	return idx.chapters
}

// ChapterFor returns the chapter backed by the directory with the given id.
func (idx *Index) ChapterFor(dirID uint16) (Chapter, bool) {
	for _, ch := range idx.chapters {
		if ch.ID == dirID {
			return ch, true
		}
	}
	return Chapter{}, false
}

func deriveChapters(names []string, pattern *regexp.Regexp) []Chapter {
	var dirs []Directory
	for i, name := range names {
		if pattern.MatchString(name) {
			dirs = append(dirs, Directory{ID: uint16(i), Name: name}) //nolint:gosec // see SortedDirectories
		}
	}
	slices.SortStableFunc(dirs, compareDirectory)

	chapters := make([]Chapter, len(dirs))
	for i, d := range dirs {
		chapters[i] = Chapter{Position: i, Directory: d}
	}
	return chapters
}

func compareDirectory(a, b Directory) int {
	if c := natsort.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
