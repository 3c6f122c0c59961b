// Package archive packs a directory tree into a single compressed buffer
// that can be hidden as one payload, and unpacks it again.
//
// The buffer is a tar stream compressed with gzip (default, readable by any
// tar tool) or LZ4 (much faster on large trees). Unpack detects the
// compression from the stream's magic number.
package archive
