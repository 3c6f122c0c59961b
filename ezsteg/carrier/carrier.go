// Package carrier moves RGB rasters between image files and the bit-plane
// channel.
//
// Any format the decoders understand can be read (PNG, JPEG, GIF, BMP,
// TIFF, WebP), but only lossless formats can be written: a lossy encoder
// would destroy the least-significant bits that hold the envelope.
package carrier

import (
	"bufio"
	"crypto/rand"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/TheusHen/ezsteg/ezsteg/capacity"
	"github.com/TheusHen/ezsteg/ezsteg/channel/bitplane"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// Format names an output image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat normalises a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "jpg", "jpeg", "gif", "webp":
		return "", stegerr.Validation("carrier: %s is lossy or palette based and would destroy hidden data", s)
	default:
		return "", stegerr.Validation("carrier: unsupported output format %q", s)
	}
}

// Decoded is a decoded carrier image.
type Decoded struct {
	Pixels *bitplane.Pixels
	// Format is the name reported by the decoder ("png", "jpeg", ...).
	Format string
	// Converted is true when the source was not 8-bit opaque RGB and was
	// converted (alpha dropped, palette expanded).
	Converted bool
}

// Decode reads an image and converts it to an RGB raster.
func Decode(r io.Reader) (*Decoded, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, stegerr.Validation("carrier: decode image: %w", err)
	}
	pix, converted := bitplane.FromImage(img)
	return &Decoded{Pixels: pix, Format: format, Converted: converted}, nil
}

// Encode writes p in the given lossless format.
func Encode(w io.Writer, p *bitplane.Pixels, format Format) error {
	img := p.Image()
	switch format {
	case FormatPNG, "":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return stegerr.Validation("carrier: unsupported output format %q", format)
	}
}

// ReadFile decodes the image at path.
func ReadFile(path string) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes p to path. The format is taken from the extension;
// paths without one get PNG.
func WriteFile(path string, p *bitplane.Pixels) error {
	format := FormatPNG
	if ext := filepath.Ext(path); ext != "" {
		var err error
		if format, err = ParseFormat(ext); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, p, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Generate returns a width x height raster filled with noise from rnd
// (crypto/rand when nil). Noise hides the LSB changes better than a flat
// image.
func Generate(width, height int, rnd io.Reader) (*bitplane.Pixels, error) {
	if width <= 0 || height <= 0 {
		return nil, stegerr.Validation("carrier: invalid dimensions %dx%d", width, height)
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	p := bitplane.NewPixels(width, height)
	if _, err := io.ReadFull(rnd, p.Pix); err != nil {
		return nil, err
	}
	return p, nil
}

// GenerateFor returns a noise carrier sized by capacity.RequiredGeometry.
func GenerateFor(payloadSize, overhead int, margin float64, rnd io.Reader) (*bitplane.Pixels, error) {
	w, h := capacity.RequiredGeometry(payloadSize, overhead, margin)
	return Generate(w, h, rnd)
}
