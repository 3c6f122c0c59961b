// Package selector hides bytes in Unicode variation selectors.
//
// Each byte maps to exactly one selector: 0-15 to U+FE00..U+FE0F and
// 16-255 to U+E0100..U+E01EF. Selectors render as nothing after a visible
// base character, so the carrier looks like that single character.
//
// Format:
//
//	base rune || 4 selectors: payload length (big endian) || payload selectors
package selector

import (
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/TheusHen/ezsteg/ezsteg/channel"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

const (
	// First selector block, VS1-VS16.
	Block1Start = 0xFE00
	Block1Len   = 16
	// Supplementary selector block, VS17-VS256.
	Block2Start = 0xE0100
	Block2Len   = 240

	// PrefixSize is the length prefix width in bytes (and selectors).
	PrefixSize = 4

	// DefaultBase is the base character used when none is given.
	DefaultBase = '\U0001F31F' // glowing star
)

// EncodeByte maps a byte to its selector.
func EncodeByte(b byte) rune {
	if b < Block1Len {
		return Block1Start + rune(b)
	}
	return Block2Start + rune(b-Block1Len)
}

// DecodeRune maps a selector back to its byte. ok is false for any rune
// outside both blocks.
func DecodeRune(r rune) (b byte, ok bool) {
	switch {
	case r >= Block1Start && r < Block1Start+Block1Len:
		return byte(r - Block1Start), true
	case r >= Block2Start && r < Block2Start+Block2Len:
		return byte(r-Block2Start) + Block1Len, true
	default:
		return 0, false
	}
}

// IsSelector reports whether r belongs to either selector block.
func IsSelector(r rune) bool {
	_, ok := DecodeRune(r)
	return ok
}

// Embed returns base followed by the selector encoding of the length prefix
// and payload.
func Embed(payload []byte, base rune) (string, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return "", stegerr.Validation("selector: payload of %d bytes exceeds the 4-byte length prefix", len(payload))
	}
	if base == utf8.RuneError || !utf8.ValidRune(base) || IsSelector(base) {
		return "", stegerr.Validation("selector: invalid base character U+%04X", base)
	}

	var prefix [PrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))

	var sb strings.Builder
	// Block-2 selectors take 4 bytes in UTF-8.
	sb.Grow(utf8.RuneLen(base) + 4*(PrefixSize+len(payload)))
	sb.WriteRune(base)
	for _, b := range prefix {
		sb.WriteRune(EncodeByte(b))
	}
	for _, b := range payload {
		sb.WriteRune(EncodeByte(b))
	}
	return sb.String(), nil
}

// Extract decodes the payload following the first character of text. Text
// after the announced payload is ignored.
func Extract(text string) ([]byte, error) {
	_, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return nil, stegerr.Validation("selector: empty text")
	}
	d := decoder{s: text[size:]}

	prefix, err := d.read(PrefixSize)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(prefix)
	// Each selector is at least 3 bytes of UTF-8; reject impossible lengths
	// before allocating.
	if uint64(n) > uint64(len(d.s)/3) {
		return nil, stegerr.Validation("selector: length prefix %d exceeds remaining text", n)
	}
	return d.read(int(n))
}

type decoder struct {
	s   string
	pos int // selectors consumed
}

func (d *decoder) read(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		r, size := utf8.DecodeRuneInString(d.s)
		if size == 0 {
			return nil, stegerr.Validation("selector: text ends after %d selectors", d.pos)
		}
		b, ok := DecodeRune(r)
		if !ok {
			return nil, stegerr.Validation("selector: invalid selector U+%04X at position %d", r, d.pos)
		}
		out = append(out, b)
		d.s = d.s[size:]
		d.pos++
	}
	return out, nil
}

// Carrier adapts a text carrier to channel.Codec.
type Carrier struct {
	Base rune
	Text string
}

// Kind returns channel.KindVariationSelector.
func (c *Carrier) Kind() channel.Kind { return channel.KindVariationSelector }

// Capacity is bounded only by the 4-byte length prefix.
func (c *Carrier) Capacity() int { return min(math.MaxInt, math.MaxUint32) }

// Embed replaces Text with Base followed by the encoding of env.
// A zero Base selects DefaultBase.
func (c *Carrier) Embed(env []byte) error {
	base := c.Base
	if base == 0 {
		base = DefaultBase
	}
	text, err := Embed(env, base)
	if err != nil {
		return err
	}
	c.Text = text
	return nil
}

// Extract decodes the envelope hidden in Text.
func (c *Carrier) Extract() ([]byte, error) { return Extract(c.Text) }

var _ channel.Codec = (*Carrier)(nil)
