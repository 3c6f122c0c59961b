// Package capacity sizes carriers for a payload. All functions are pure.
package capacity

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/TheusHen/ezsteg/ezsteg/channel/bitplane"
	"github.com/TheusHen/ezsteg/ezsteg/channel/selector"
)

const (
	// DefaultMargin leaves 20% headroom.
	DefaultMargin = 1.2
	// Alignment rounds generated image sides up to a multiple of 8.
	Alignment = 8
)

// RequiredGeometry returns the side lengths of the smallest square RGB
// carrier, aligned to Alignment, that holds payloadSize+overhead envelope
// bytes inflated by margin. A margin below 1 is treated as 1.
func RequiredGeometry(payloadSize, overhead int, margin float64) (width, height int) {
	if margin < 1 || math.IsNaN(margin) {
		margin = 1
	}
	total := math.Ceil(float64(payloadSize+overhead) * margin)
	if total <= 0 {
		return Alignment, Alignment
	}
	pixels := math.Ceil(total * 8 / bitplane.Channels)
	side := int(math.Ceil(math.Sqrt(pixels)))
	// Guard against sqrt rounding just below the exact root.
	for side*side < int(pixels) {
		side++
	}
	side = (side + Alignment - 1) / Alignment * Alignment
	return side, side
}

// RequiredSelectorCount returns the number of selectors needed for a
// payload of payloadSize bytes plus overhead envelope bytes, including the
// length prefix. The base character is not counted.
func RequiredSelectorCount(payloadSize, overhead int) int {
	return payloadSize + overhead + selector.PrefixSize
}

// RequiredTextLength returns the carrier length in characters (base
// character included).
func RequiredTextLength(payloadSize, overhead int) int {
	return RequiredSelectorCount(payloadSize, overhead) + 1
}

// FormatBytes renders a byte count for display, e.g. "1.5 KiB".
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
