package bitplane

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/TheusHen/ezsteg/ezsteg/envelope"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

func noisePixels(t testing.TB, w, h int, seed int64) *Pixels {
	t.Helper()
	p := NewPixels(w, h)
	rand.New(rand.NewSource(seed)).Read(p.Pix)
	return p
}

func TestCapacityFormula(t *testing.T) {
	if got := RawCapacity(64, 64, 3); got != 64*64*3/8 {
		t.Fatalf("RawCapacity = %d", got)
	}
	if got := RawCapacity(3, 1, 3); got != 1 {
		t.Fatalf("9 values hold one byte, got %d", got)
	}
	if got := Capacity(64, 64, envelope.MaxOverhead()); got != 1536-52 {
		t.Fatalf("Capacity = %d", got)
	}
	if got := Capacity(2, 2, envelope.MaxOverhead()); got != 0 {
		t.Fatalf("tiny carrier should clamp to zero, got %d", got)
	}
	if RawCapacity(0, 10, 3) != 0 {
		t.Fatalf("empty carrier has no capacity")
	}
}

func TestBitOrder(t *testing.T) {
	p := NewPixels(4, 1) // 12 values, one byte of capacity
	out, err := Embed(p, []byte{0xb4}) // 1011 0100
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []uint8{1, 0, 1, 1, 0, 1, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(out.Pix, want) {
		t.Fatalf("values = %v, want %v (MSB first, R,G,B row-major)", out.Pix, want)
	}
}

func TestEmbedOnlyTouchesLSBs(t *testing.T) {
	p := noisePixels(t, 32, 32, 1)
	env, _ := envelope.Build(bytes.Repeat([]byte{0x5a}, 100), envelope.Plain{})
	out, err := Embed(p, env)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i := range p.Pix {
		if p.Pix[i]&0xfe != out.Pix[i]&0xfe {
			t.Fatalf("value %d changed beyond its LSB", i)
		}
		if i >= len(env)*8 && p.Pix[i] != out.Pix[i] {
			t.Fatalf("value %d past the envelope was modified", i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	p := noisePixels(t, 64, 64, 2)
	payload := []byte("Hello, World!")
	env, err := envelope.Build(payload, envelope.Plain{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Embed(p, env)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	got, err := Extract(out)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(got, env) {
		t.Fatalf("extracted envelope differs")
	}
}

func TestCapacityBoundary(t *testing.T) {
	p := noisePixels(t, 16, 16, 3)
	capacity := Capacity(p.Width, p.Height, (envelope.Plain{}).Overhead())

	env, _ := envelope.Build(make([]byte, capacity), envelope.Plain{})
	out, err := Embed(p, env)
	if err != nil {
		t.Fatalf("payload of exactly capacity should fit: %v", err)
	}
	got, err := Extract(out)
	if err != nil || !bytes.Equal(got, env) {
		t.Fatalf("round trip at capacity failed: %v", err)
	}

	env, _ = envelope.Build(make([]byte, capacity+1), envelope.Plain{})
	if _, err := Embed(p, env); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("capacity+1 should be a validation error, got %v", err)
	}
}

func TestEmbedLeavesCarrierUntouched(t *testing.T) {
	p := noisePixels(t, 8, 8, 4)
	orig := p.Clone()
	if _, err := Embed(p, make([]byte, 1000)); err == nil {
		t.Fatalf("expected capacity error")
	}
	env, _ := envelope.Build([]byte("x"), envelope.Plain{})
	if _, err := Embed(p, env); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !bytes.Equal(p.Pix, orig.Pix) {
		t.Fatalf("input carrier was modified")
	}

	c := &Carrier{Pixels: p}
	if err := c.Embed(make([]byte, 1000)); err == nil {
		t.Fatalf("expected capacity error")
	}
	if c.Pixels != p {
		t.Fatalf("failed Embed must not replace the carrier")
	}
}

func TestExtractUndersized(t *testing.T) {
	if _, err := Extract(NewPixels(4, 4)); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("48 values cannot hold a header, got %v", err)
	}

	// A header announcing more than the carrier holds.
	p := noisePixels(t, 8, 8, 5) // 24 bytes
	h := envelope.Header{Version: envelope.Version, DataLength: 100}
	out, err := Embed(p, h.Marshal(nil))
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := Extract(out); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractRejectsForeignVersion(t *testing.T) {
	p := noisePixels(t, 16, 16, 6)
	env, _ := envelope.Build([]byte("data"), envelope.Plain{})
	env[0] = 2
	out, err := Embed(p, env)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := Extract(out); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParallelWalkMatchesSerial(t *testing.T) {
	size := parallelThreshold + 12345
	side := 1
	for RawCapacity(side, side, Channels) < size+envelope.HeaderSize {
		side *= 2
	}
	p := noisePixels(t, side, side, 7)
	payload := make([]byte, size)
	rand.New(rand.NewSource(8)).Read(payload)
	env, _ := envelope.Build(payload, envelope.Plain{})

	out, err := Embed(p, env)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	serial := p.Clone()
	writeBits(serial.Pix, env, 0, len(env))
	if !bytes.Equal(out.Pix, serial.Pix) {
		t.Fatalf("parallel embed differs from serial walk")
	}
	got, err := Extract(out)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(got, env) {
		t.Fatalf("parallel extract mismatch")
	}
}

func TestFromImageConverts(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 10})
	gray.SetGray(1, 0, color.Gray{Y: 200})
	p, converted := FromImage(gray)
	if !converted {
		t.Fatalf("gray image should be reported as converted")
	}
	if r, g, b := p.At(1, 0); r != 200 || g != 200 || b != 200 {
		t.Fatalf("unexpected converted pixel %d,%d,%d", r, g, b)
	}

	rgba := image.NewRGBA(image.Rect(5, 5, 7, 6))
	rgba.Set(5, 5, color.RGBA{1, 2, 3, 255})
	rgba.Set(6, 5, color.RGBA{4, 5, 6, 255})
	p, converted = FromImage(rgba)
	if converted {
		t.Fatalf("opaque RGBA needs no conversion")
	}
	if r, g, b := p.At(1, 0); r != 4 || g != 5 || b != 6 {
		t.Fatalf("offset bounds not honoured: %d,%d,%d", r, g, b)
	}

	back, _ := FromImage(p.Image())
	if !bytes.Equal(back.Pix, p.Pix) {
		t.Fatalf("Image round trip changed pixels")
	}
}

func BenchmarkEmbed(b *testing.B) {
	p := noisePixels(b, 1024, 1024, 9)
	env := make([]byte, RawCapacity(1024, 1024, Channels))
	b.SetBytes(int64(len(env)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Embed(p, env)
	}
}
