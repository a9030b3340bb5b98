// Package yuffin reads Yuffin media containers and image archives.
//
// Both formats are read through a [ByteSource], an io.ReaderAt with a size
// and a stable identity, so containers can be served from local files,
// memory or HTTP range requests without loading them whole.
//
// [Open] sniffs the six-byte signature and dispatches to the matching reader:
//
//	src, err := source.OpenFile("movies.yuf")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	c, err := yuffin.Open(ctx, src)
//	if err != nil {
//	    return err
//	}
//	switch c.Format {
//	case yuffin.FormatMedia:
//	    for _, a := range c.Media.Assets() {
//	        fmt.Println(a.Name, a.Kind)
//	    }
//	case yuffin.FormatImageArchive:
//	    fmt.Println(c.Images.Len(), "images")
//	}
//
// The [media] and [images] packages hold the format readers. The [view]
// package holds the navigation state of an opened image archive, [handle]
// manages the lifetime of displayed resources and [viewer] composes them.
package yuffin
