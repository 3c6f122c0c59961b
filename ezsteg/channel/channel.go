// Package channel defines the carrier channels an envelope can be written
// into. Two implementations exist, selected by Kind: the bit-plane channel
// (LSBs of RGB pixels) and the variation-selector channel (invisible Unicode
// selectors after a base character).
package channel

import (
	"github.com/TheusHen/ezsteg/ezsteg/envelope"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// Kind tags a channel implementation.
type Kind uint8

const (
	// KindBitPlane stores envelopes in the LSBs of RGB pixel values.
	KindBitPlane Kind = 1
	// KindVariationSelector stores envelopes as Unicode variation selectors.
	KindVariationSelector Kind = 2
)

// String returns the upper-case channel name.
func (k Kind) String() string {
	switch k {
	case KindBitPlane:
		return "BIT_PLANE"
	case KindVariationSelector:
		return "VARIATION_SELECTOR"
	default:
		return "UNKNOWN"
	}
}

// Codec is a carrier that can hold one envelope.
// Embed must leave the carrier untouched when it returns an error.
type Codec interface {
	Kind() Kind
	// Capacity reports the largest envelope, in bytes, the carrier can hold.
	Capacity() int
	Embed(env []byte) error
	Extract() ([]byte, error)
}

// Reader reads carrier bytes sequentially.
type Reader interface {
	// ReadBytes returns the next n bytes or a validation error if fewer remain.
	ReadBytes(n int) ([]byte, error)
}

// ReadEnvelope performs the two-phase envelope read shared by channels whose
// framing comes from the envelope header: first exactly HeaderSize bytes,
// then the salt, nonce and body lengths the header announces.
func ReadEnvelope(r Reader) ([]byte, error) {
	head, err := r.ReadBytes(envelope.HeaderSize)
	if err != nil {
		return nil, err
	}
	h, err := envelope.ParseHeader(head)
	if err != nil {
		return nil, err
	}
	rest, err := r.ReadBytes(h.Len() - envelope.HeaderSize)
	if err != nil {
		return nil, stegerr.Validation("channel: carrier too small for announced envelope of %d bytes: %w", h.Len(), err)
	}
	env := make([]byte, 0, h.Len())
	env = append(env, head...)
	return append(env, rest...), nil
}
