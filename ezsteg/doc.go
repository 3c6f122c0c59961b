// Package ezsteg hides byte payloads in RGB images and in Unicode text.
//
// A payload is first wrapped in a versioned envelope, optionally sealed with
// a password (PBKDF2-HMAC-SHA256 key derivation, ChaCha20-Poly1305), and the
// envelope is then written into a carrier channel: the least-significant bits
// of an image's R, G and B values, or a run of invisible variation selectors
// following a visible base character. Stego ties these layers together.
//
// Sub-packages expose each layer on its own: envelope, crypto, channel,
// capacity, carrier, archive and shard.
package ezsteg
