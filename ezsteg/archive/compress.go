package archive

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// Compression selects the archive compressor.
type Compression string

const (
	CompressionGzip Compression = "gzip"
	CompressionLZ4  Compression = "lz4"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// lz4WriterPool reuses LZ4 writers to reduce allocations.
var lz4WriterPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

// lz4ReaderPool reuses LZ4 readers.
var lz4ReaderPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

// compressor returns a writer compressing into w and a release func that
// must be called after Close.
func compressor(w io.Writer, c Compression) (io.WriteCloser, func(), error) {
	switch c {
	case CompressionGzip, "":
		zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return nil, nil, err
		}
		return zw, func() {}, nil
	case CompressionLZ4:
		zw := lz4WriterPool.Get().(*lz4.Writer)
		zw.Reset(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
			lz4WriterPool.Put(zw)
			return nil, nil, err
		}
		return zw, func() { lz4WriterPool.Put(zw) }, nil
	default:
		return nil, nil, stegerr.Validation("archive: unknown compression %q", c)
	}
}

// decompressor detects the compression of data by magic number.
func decompressor(data []byte) (io.Reader, func(), error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, nil, stegerr.Validation("archive: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case bytes.HasPrefix(data, lz4Magic):
		zr := lz4ReaderPool.Get().(*lz4.Reader)
		zr.Reset(bytes.NewReader(data))
		return zr, func() { lz4ReaderPool.Put(zr) }, nil
	default:
		return nil, nil, stegerr.Validation("archive: payload is not a gzip or lz4 archive")
	}
}

// Detect reports the compression of an archive payload, or "" if data does
// not look like one.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, lz4Magic):
		return CompressionLZ4
	default:
		return ""
	}
}
