// Package media reads Yuffin media containers.
//
// A media container bundles audio, video and nested image archive assets
// behind a small self-describing index:
//
//	0    6   signature "YUFFIN"
//	6    2   reserved
//	8    8   index block length (big-endian u64)
//	16   n   base64 text of a JSON array of {id, name, size, mime, offset}
//
// [Open] decodes the header and index only. Asset bodies are reached through
// [Index.Section], which checks the stored range against the source size, so
// a truncated asset fails on its own without invalidating the rest of the
// index. Assets whose MIME type is the image archive media type can be opened
// in place with [Index.OpenArchive].
package media
