package envelope

import (
	"encoding/binary"

	"github.com/TheusHen/ezsteg/ezsteg/crypto"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

const (
	// Version is the only envelope format version this package reads or writes.
	Version = 1
	// HeaderSize is the fixed encoded header length.
	HeaderSize = 8
	// MaxDataLength is the largest body the 4-byte length field can describe.
	MaxDataLength = 1<<32 - 1
)

// Header is the fixed envelope prefix.
// Format (all multi-byte fields big endian):
//
//	1 byte:  format version
//	4 bytes: body length (ciphertext||tag, or raw payload)
//	1 byte:  salt length (0 or 16)
//	2 bytes: nonce length (0 or 12)
type Header struct {
	Version     uint8
	DataLength  uint32
	SaltLength  uint8
	NonceLength uint16
}

// Encrypted reports whether the header describes an encrypted body.
func (h Header) Encrypted() bool { return h.SaltLength != 0 }

// Len returns the full envelope length described by the header.
func (h Header) Len() int {
	return HeaderSize + int(h.SaltLength) + int(h.NonceLength) + int(h.DataLength)
}

// Marshal appends the encoded header to dst.
func (h Header) Marshal(dst []byte) []byte {
	var buf [HeaderSize]byte
	buf[0] = h.Version
	binary.BigEndian.PutUint32(buf[1:5], h.DataLength)
	buf[5] = h.SaltLength
	binary.BigEndian.PutUint16(buf[6:8], h.NonceLength)
	return append(dst, buf[:]...)
}

// ParseHeader decodes and validates the first HeaderSize bytes of b.
// The version is checked before anything else so that a foreign or future
// envelope is rejected without reading its body.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, stegerr.Validation("envelope: truncated header: %d of %d bytes", len(b), HeaderSize)
	}
	h := Header{
		Version:     b[0],
		DataLength:  binary.BigEndian.Uint32(b[1:5]),
		SaltLength:  b[5],
		NonceLength: binary.BigEndian.Uint16(b[6:8]),
	}
	if h.Version != Version {
		return Header{}, stegerr.Validation("unsupported format version: %d", h.Version)
	}
	switch {
	case h.SaltLength == 0 && h.NonceLength == 0:
	case int(h.SaltLength) == crypto.SaltSize && int(h.NonceLength) == crypto.NonceSize:
		if h.DataLength < crypto.TagSize {
			return Header{}, stegerr.Validation("envelope: encrypted body shorter than authentication tag")
		}
	default:
		return Header{}, stegerr.Validation("envelope: invalid salt/nonce lengths %d/%d", h.SaltLength, h.NonceLength)
	}
	return h, nil
}
