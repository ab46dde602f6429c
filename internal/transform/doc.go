// Package transform converts one media file into another: bounded photo
// compression, square thumbnails, and metadata stripping. Every operation
// is stateless and idempotent given the same input; the only side effect
// is writing the output file. Metadata removal is a property of the
// re-encode itself (decode to pixels, encode fresh), which is why none of
// the photo operations ever copy the source through unmodified.
package transform
