package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAEADRoundTrip(t *testing.T) {
	key := testKey()
	nonce, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}

	plaintext := []byte("hello ezsteg envelope")
	sealed, err := Seal(key, nonce, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(sealed) != len(plaintext)+TagSize {
		t.Fatalf("unexpected ciphertext length %d", len(sealed))
	}

	opened, err := Open(key, nonce, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("decrypted != plaintext")
	}

	// Tamper with the tag
	sealed[len(sealed)-1] ^= 0xff
	opened, err = Open(key, nonce, sealed)
	if !errors.Is(err, stegerr.ErrSecurity) {
		t.Fatalf("expected security error on tampered ciphertext, got %v", err)
	}
	if opened != nil {
		t.Fatalf("no partial output on failure")
	}
}

func TestOpenRejectsShortInput(t *testing.T) {
	nonce := make([]byte, NonceSize)
	if _, err := Open(testKey(), nonce, make([]byte, TagSize-1)); err != ErrDecryptionFailed {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSealRejectsBadSizes(t *testing.T) {
	if _, err := Seal(make([]byte, 16), make([]byte, NonceSize), nil); !errors.Is(err, stegerr.ErrSecurity) {
		t.Fatalf("short key should be a security error, got %v", err)
	}
	if _, err := Seal(testKey(), make([]byte, 8), nil); !errors.Is(err, stegerr.ErrSecurity) {
		t.Fatalf("short nonce should be a security error, got %v", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0x5a}, SaltSize)
	k1, err := DeriveKey([]byte("correct-horse-battery"), salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := DeriveKey([]byte("correct-horse-battery"), salt)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if len(k1) != KeySize {
		t.Fatalf("unexpected key length %d", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same password and salt must derive the same key")
	}

	other := bytes.Repeat([]byte{0xa5}, SaltSize)
	k3, err := DeriveKey([]byte("correct-horse-battery"), other)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Fatalf("different salts should derive different keys")
	}
}

func TestDeriveKeyRejectsBadSalt(t *testing.T) {
	if _, err := DeriveKey([]byte("pw"), nil); !errors.Is(err, stegerr.ErrSecurity) {
		t.Fatalf("expected security error for empty salt, got %v", err)
	}
}

func TestRandomValuesDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 256; i++ {
		salt, err := NewSalt()
		if err != nil {
			t.Fatalf("NewSalt: %v", err)
		}
		if seen[string(salt)] {
			t.Fatalf("salt repeated after %d draws", i)
		}
		seen[string(salt)] = true
	}
}

func TestWipe(t *testing.T) {
	key := testKey()
	Wipe(key)
	if !bytes.Equal(key, make([]byte, KeySize)) {
		t.Fatalf("key not zeroed")
	}
}

func BenchmarkSeal(b *testing.B) {
	key := testKey()
	nonce := make([]byte, NonceSize)
	plaintext := make([]byte, 64*1024) // 64 KB
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Seal(key, nonce, plaintext)
	}
}

func BenchmarkDeriveKey(b *testing.B) {
	salt := make([]byte, SaltSize)
	for i := 0; i < b.N; i++ {
		_, _ = DeriveKey([]byte("correct-horse-battery"), salt)
	}
}
