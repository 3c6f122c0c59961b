package bitplane

import (
	"image"
	"image/color"
	"image/draw"
)

// Channels is the number of modifiable values per pixel (R, G, B).
const Channels = 3

// Pixels is an RGB raster. Pix holds the R, G, B values of each pixel in
// row-major order; the value at (x, y, c) is Pix[(y*Width+x)*Channels+c].
type Pixels struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixels allocates a black width x height raster.
func NewPixels(width, height int) *Pixels {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Pixels{Width: width, Height: height, Pix: make([]uint8, width*height*Channels)}
}

// FromImage copies img into an RGB raster. Images that are not already
// 8-bit opaque RGB(A) are converted first; the conversion drops alpha and
// any precision beyond 8 bits and cannot be undone. converted reports
// whether that happened.
func FromImage(img image.Image) (p *Pixels, converted bool) {
	b := img.Bounds()
	p = NewPixels(b.Dx(), b.Dy())

	rgba, ok := img.(*image.RGBA)
	if !ok || !rgba.Opaque() {
		converted = true
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		// Composite onto opaque black so that alpha is flattened, not kept.
		draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Over)
		b = rgba.Bounds()
	}

	i := 0
	for y := 0; y < p.Height; y++ {
		row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < p.Width; x++ {
			p.Pix[i] = row[x*4]
			p.Pix[i+1] = row[x*4+1]
			p.Pix[i+2] = row[x*4+2]
			i += Channels
		}
	}
	return p, converted
}

// Image returns an opaque RGBA copy of the raster.
func (p *Pixels) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, j := 0, 0; i+Channels <= len(p.Pix); i, j = i+Channels, j+4 {
		img.Pix[j] = p.Pix[i]
		img.Pix[j+1] = p.Pix[i+1]
		img.Pix[j+2] = p.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// Clone returns a deep copy.
func (p *Pixels) Clone() *Pixels {
	pix := make([]uint8, len(p.Pix))
	copy(pix, p.Pix)
	return &Pixels{Width: p.Width, Height: p.Height, Pix: pix}
}

// At returns the RGB values of pixel (x, y).
func (p *Pixels) At(x, y int) (r, g, b uint8) {
	i := (y*p.Width + x) * Channels
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// Set stores the RGB values of pixel (x, y).
func (p *Pixels) Set(x, y int, r, g, b uint8) {
	i := (y*p.Width + x) * Channels
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = r, g, b
}
