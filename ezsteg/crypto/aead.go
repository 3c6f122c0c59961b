package crypto

import (
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

const (
	// NonceSize is the AEAD nonce length (96 bits).
	NonceSize = chacha20poly1305.NonceSize
	// TagSize is the authentication tag appended to every ciphertext.
	TagSize = chacha20poly1305.Overhead
)

// Seal encrypts and authenticates plaintext under key and nonce.
// Returns: ciphertext || tag (16 bytes). No associated data is bound.
func Seal(key, nonce, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, stegerr.Security("crypto: invalid key size for ChaCha20-Poly1305")
	}
	if len(nonce) != NonceSize {
		return nil, stegerr.Security("crypto: invalid nonce size %d", len(nonce))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, stegerr.Security("crypto: %w", err)
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open verifies and decrypts ciphertext || tag.
// Any authentication failure is reported as a single generic security
// error; wrong password and tampering are indistinguishable.
func Open(key, nonce, sealed []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, stegerr.Security("crypto: invalid key size for ChaCha20-Poly1305")
	}
	if len(nonce) != NonceSize {
		return nil, stegerr.Security("crypto: invalid nonce size %d", len(nonce))
	}
	if len(sealed) < TagSize {
		return nil, ErrDecryptionFailed
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, stegerr.Security("crypto: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// ErrDecryptionFailed is returned by Open for every authentication failure.
var ErrDecryptionFailed = stegerr.Security("decryption failed: wrong password or corrupted data")
