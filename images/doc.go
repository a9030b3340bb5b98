// Package images reads Yuffin image archives.
//
// An image archive bundles a large ordered collection of images grouped into
// directories. The header, directory table and file index are decoded up
// front by [Open]; image bodies are read lazily, one record at a time, through
// [Index.Resolve] or [Index.Section].
//
// Layout (all integers little-endian):
//
//	0        6   signature "Yuffin"
//	10       8   image count
//	18       4   directory count
//	22       8   directory table offset
//	30       8   file index offset
//	dirs..idx    NUL-separated directory names
//	idx..        8-byte entries {offset u32, directory u16, reserved u16}
//
// Every image record starts with an 8-byte sub-header {reserved u32, size u32}
// followed by size bytes of image data.
//
// Directories whose names match the chapter pattern (default "chapter_"
// prefix, case-insensitive) form the archive's chapters, ordered naturally.
package images
