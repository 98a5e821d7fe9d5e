// Package images resolves signature image references into bytes and a
// content type, ready to be embedded as a data URI.
//
// Three resolvers are provided: DirResolver reads from a local directory,
// S3Resolver reads from an S3-compatible bucket and Cached wraps either with
// an LRU cache.
//
//	r := images.NewCached(images.NewDirResolver("data/Signatures/images"))
//	p, err := r.ResolveImage(ctx, "alex.png")
//	if errors.Is(err, images.ErrNotFound) {
//	    // compose without an image
//	}
//
// Content types are sniffed from the bytes. When sniffing does not recognise
// an image (SVG, for example) the stored content type and then the file
// extension are consulted. Anything that is not image/* is rejected with
// ErrNotImage.
package images
