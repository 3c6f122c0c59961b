package bitplane

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/ezsteg/ezsteg/channel"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// parallelThreshold is the envelope size above which the walk is split
// across goroutines. Each envelope byte maps to its own eight channel
// values, so contiguous byte ranges never share a value.
const parallelThreshold = 256 * 1024

// RawCapacity returns how many envelope bytes fit into width x height pixels
// with channels modifiable values each.
func RawCapacity(width, height, channels int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	if channels <= 0 {
		channels = Channels
	}
	return width * height * channels / 8
}

// Capacity returns the payload bytes that fit into a width x height RGB
// carrier once overhead envelope bytes are reserved. Pass
// envelope.MaxOverhead() when the mode is not yet known.
func Capacity(width, height, overhead int) int {
	c := RawCapacity(width, height, Channels) - overhead
	if c < 0 {
		return 0
	}
	return c
}

// Embed returns a copy of carrier with env written into its LSBs.
// carrier itself is never modified.
func Embed(carrier *Pixels, env []byte) (*Pixels, error) {
	if capacity := len(carrier.Pix) / 8; len(env) > capacity {
		return nil, stegerr.Validation("bitplane: envelope of %d bytes exceeds carrier capacity of %d bytes", len(env), capacity)
	}
	out := carrier.Clone()
	walk(len(env), func(lo, hi int) {
		writeBits(out.Pix, env, lo, hi)
	})
	return out, nil
}

// Extract reads the envelope stored in carrier's LSBs.
func Extract(carrier *Pixels) ([]byte, error) {
	return channel.ReadEnvelope(&reader{pix: carrier.Pix})
}

func writeBits(pix, env []byte, lo, hi int) {
	for k := lo; k < hi; k++ {
		b := env[k]
		vals := pix[k*8 : k*8+8]
		for bit := 0; bit < 8; bit++ {
			vals[bit] = vals[bit]&0xfe | (b>>(7-bit))&1
		}
	}
}

func readBits(pix, dst []byte, lo, hi int) {
	for k := lo; k < hi; k++ {
		var b byte
		for _, v := range pix[k*8 : k*8+8] {
			b = b<<1 | v&1
		}
		dst[k] = b
	}
}

// walk calls fn over [0, n) either once or over contiguous sub-ranges in
// parallel for large n.
func walk(n int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if n < parallelThreshold || workers < 2 {
		fn(0, n)
		return
	}
	step := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += step {
		lo, hi := lo, min(lo+step, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// reader yields envelope bytes from successive groups of eight LSBs.
type reader struct {
	pix []byte
	off int // in bytes of decoded output
}

func (r *reader) ReadBytes(n int) ([]byte, error) {
	avail := len(r.pix)/8 - r.off
	if n > avail {
		return nil, stegerr.Validation("bitplane: need %d bytes, carrier holds %d more", n, avail)
	}
	pix := r.pix[r.off*8 : (r.off+n)*8]
	out := make([]byte, n)
	walk(n, func(lo, hi int) {
		readBits(pix, out, lo, hi)
	})
	r.off += n
	return out, nil
}

// Carrier adapts a raster to channel.Codec. Embed replaces Pixels with the
// modified copy only on success.
type Carrier struct {
	Pixels *Pixels
}

// Kind returns channel.KindBitPlane.
func (c *Carrier) Kind() channel.Kind { return channel.KindBitPlane }

// Capacity returns the envelope bytes the raster holds, before overhead.
func (c *Carrier) Capacity() int { return len(c.Pixels.Pix) / 8 }

// Embed writes env into a copy of Pixels and swaps it in.
func (c *Carrier) Embed(env []byte) error {
	out, err := Embed(c.Pixels, env)
	if err != nil {
		return err
	}
	c.Pixels = out
	return nil
}

// Extract reads the envelope from Pixels.
func (c *Carrier) Extract() ([]byte, error) { return Extract(c.Pixels) }

var _ channel.Codec = (*Carrier)(nil)
