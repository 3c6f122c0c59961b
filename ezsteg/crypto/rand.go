package crypto

import (
	"crypto/rand"
	"io"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// NewSalt returns SaltSize fresh random bytes.
func NewSalt() ([]byte, error) { return randomBytes(SaltSize) }

// NewNonce returns NonceSize fresh random bytes.
func NewNonce() ([]byte, error) { return randomBytes(NonceSize) }

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, stegerr.Security("crypto: read random: %w", err)
	}
	return b, nil
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	clear(b)
}
