// Package envelope builds and parses the versioned binary container that
// wraps every payload before it is written into a carrier.
//
// Layout:
//
//	Header (8 bytes) || Salt (salt_length) || Nonce (nonce_length) || Body (data_length)
//
// A Plain envelope has zero-length salt and nonce and carries the payload as
// its body. An Encrypted envelope carries a fresh 16-byte salt, a fresh
// 12-byte nonce and a ChaCha20-Poly1305 ciphertext with the tag appended.
//
// Callers must reject passwords shorter than MinPasswordLength before
// building an Encrypted mode; the codec does not re-check.
package envelope
