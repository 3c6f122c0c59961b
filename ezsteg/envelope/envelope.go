package envelope

import (
	"fmt"

	"github.com/TheusHen/ezsteg/ezsteg/crypto"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// Codec builds and parses envelopes. The zero value is ready to use.
type Codec struct {
	// derive replaces crypto.DeriveKey in tests.
	derive func(password, salt []byte) ([]byte, error)
}

func (c *Codec) deriveKey(password, salt []byte) ([]byte, error) {
	if c != nil && c.derive != nil {
		return c.derive(password, salt)
	}
	return crypto.DeriveKey(password, salt)
}

// Build wraps payload in a version-1 envelope.
// In Encrypted mode every call draws a fresh salt and nonce.
func (c *Codec) Build(payload []byte, mode Mode) ([]byte, error) {
	switch m := mode.(type) {
	case Plain:
		if uint64(len(payload)) > MaxDataLength {
			return nil, stegerr.Validation("envelope: payload of %d bytes exceeds the %d byte length field", len(payload), uint64(MaxDataLength))
		}
		h := Header{Version: Version, DataLength: uint32(len(payload))}
		out := make([]byte, 0, h.Len())
		out = h.Marshal(out)
		return append(out, payload...), nil
	case *Encrypted:
		return c.seal(payload, m)
	default:
		return nil, stegerr.Validation("envelope: unknown mode %T", mode)
	}
}

func (c *Codec) seal(payload []byte, m *Encrypted) ([]byte, error) {
	if m == nil || m.password == nil {
		return nil, stegerr.Validation("envelope: encrypted mode without password")
	}
	if uint64(len(payload))+crypto.TagSize > MaxDataLength {
		return nil, stegerr.Validation("envelope: payload of %d bytes exceeds the %d byte length field", len(payload), uint64(MaxDataLength-crypto.TagSize))
	}
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	nonce, err := crypto.NewNonce()
	if err != nil {
		return nil, err
	}
	key, err := c.deriveKey(m.password, salt)
	if err != nil {
		return nil, err
	}
	body, err := crypto.Seal(key, nonce, payload)
	crypto.Wipe(key)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:     Version,
		DataLength:  uint32(len(body)),
		SaltLength:  crypto.SaltSize,
		NonceLength: crypto.NonceSize,
	}
	out := make([]byte, 0, h.Len())
	out = h.Marshal(out)
	out = append(out, salt...)
	out = append(out, nonce...)
	return append(out, body...), nil
}

// Parse validates env and returns its payload, decrypting with mode when the
// envelope is encrypted. A Plain envelope is returned as-is whatever the
// mode. Bytes past the length described by the header are ignored.
func (c *Codec) Parse(env []byte, mode Mode) ([]byte, error) {
	h, err := ParseHeader(env)
	if err != nil {
		return nil, err
	}
	if len(env) < HeaderSize+int(h.SaltLength)+int(h.NonceLength) {
		return nil, stegerr.Validation("envelope: truncated salt/nonce")
	}
	if len(env) < h.Len() {
		return nil, stegerr.Validation("envelope: truncated body: have %d of %d bytes", len(env), h.Len())
	}

	pos := HeaderSize
	salt := env[pos : pos+int(h.SaltLength)]
	pos += int(h.SaltLength)
	nonce := env[pos : pos+int(h.NonceLength)]
	pos += int(h.NonceLength)
	body := env[pos : pos+int(h.DataLength)]

	if !h.Encrypted() {
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}

	m, ok := mode.(*Encrypted)
	if !ok || m == nil || m.password == nil {
		return nil, stegerr.Validation("envelope: payload is encrypted; a password is required")
	}
	key, err := c.deriveKey(m.password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := crypto.Open(key, nonce, body)
	crypto.Wipe(key)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// Build wraps payload using a zero Codec.
func Build(payload []byte, mode Mode) ([]byte, error) {
	return (*Codec)(nil).Build(payload, mode)
}

// Parse parses env using a zero Codec.
func Parse(env []byte, mode Mode) ([]byte, error) {
	return (*Codec)(nil).Parse(env, mode)
}

// String implements fmt.Stringer for debugging.
func (h Header) String() string {
	return fmt.Sprintf("envelope v%d data=%d salt=%d nonce=%d", h.Version, h.DataLength, h.SaltLength, h.NonceLength)
}
