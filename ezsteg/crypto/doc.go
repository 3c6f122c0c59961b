// Package crypto adapts the password-based primitives used by the ezsteg
// envelope.
//
// Design goals:
//   - Fast on commodity hardware (no AES-NI required)
//   - AEAD encryption via ChaCha20-Poly1305 (RFC 8439), tag appended
//   - Key derivation via PBKDF2-HMAC-SHA256 with a fixed iteration count
//   - Fresh random salt and nonce per envelope, never reused
//   - Key material overwritten as soon as the AEAD call returns
//
// Every constant here is part of envelope format version 1. Changing any of
// them requires a new format version.
package crypto
