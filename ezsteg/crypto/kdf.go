package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

const (
	// KeySize is the derived key length (256 bits).
	KeySize = 32
	// SaltSize is the random KDF salt length stored in the envelope.
	SaltSize = 16
	// KDFIterations is the PBKDF2 iteration count for format version 1.
	KDFIterations = 600_000
)

// DeriveKey derives a KeySize-byte key from password and salt using
// PBKDF2-HMAC-SHA256 with KDFIterations rounds.
// The same password and salt always yield the same key.
func DeriveKey(password, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, stegerr.Security("crypto: invalid salt size %d", len(salt))
	}
	return pbkdf2.Key(password, salt, KDFIterations, KeySize, sha256.New), nil
}
