package envelope

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/TheusHen/ezsteg/ezsteg/crypto"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// memoCodec runs the real KDF once per (password, salt) pair.
func memoCodec() *Codec {
	var mu sync.Mutex
	cache := make(map[string][]byte)
	return &Codec{derive: func(password, salt []byte) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		k := string(password) + "\x00" + string(salt)
		if key, ok := cache[k]; ok {
			return bytes.Clone(key), nil
		}
		key, err := crypto.DeriveKey(password, salt)
		if err != nil {
			return nil, err
		}
		cache[k] = bytes.Clone(key)
		return key, nil
	}}
}

// fastCodec swaps the KDF for a single hash; used where only randomness or
// framing is under test.
func fastCodec() *Codec {
	return &Codec{derive: func(password, salt []byte) ([]byte, error) {
		h := sha256.New()
		h.Write(password)
		h.Write(salt)
		return h.Sum(nil), nil
	}}
}

func TestHeaderLayout(t *testing.T) {
	h := Header{Version: 1, DataLength: 0x01020304, SaltLength: 16, NonceLength: 12}
	got := h.Marshal(nil)
	want := []byte{0x01, 0x01, 0x02, 0x03, 0x04, 0x10, 0x00, 0x0c}
	if !bytes.Equal(got, want) {
		t.Fatalf("header bytes = %x, want %x", got, want)
	}
	back, err := ParseHeader(got)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if back != h {
		t.Fatalf("header round trip mismatch: %v != %v", back, h)
	}
	if h.Len() != HeaderSize+16+12+0x01020304 {
		t.Fatalf("unexpected Len %d", h.Len())
	}
}

func TestParseHeaderRejects(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"short", []byte{1, 0, 0}},
		{"salt without nonce", []byte{1, 0, 0, 0, 32, 16, 0, 0}},
		{"nonce without salt", []byte{1, 0, 0, 0, 32, 0, 0, 12}},
		{"odd salt size", []byte{1, 0, 0, 0, 32, 8, 0, 12}},
		{"body shorter than tag", []byte{1, 0, 0, 0, 4, 16, 0, 12}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseHeader(tc.in); !errors.Is(err, stegerr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPlainRoundTrip(t *testing.T) {
	payload := []byte("plain payload")
	env, err := Build(payload, Plain{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(env) != HeaderSize+len(payload) {
		t.Fatalf("unexpected envelope length %d", len(env))
	}
	h, _ := ParseHeader(env)
	if h.Encrypted() || h.SaltLength != 0 || h.NonceLength != 0 {
		t.Fatalf("plain envelope must not carry salt or nonce: %v", h)
	}
	got, err := Parse(env, Plain{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}

	// A password does not matter for a plain envelope.
	got, err = Parse(env, NewEncrypted("irrelevant-password"))
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("plain envelope should parse under any mode: %v", err)
	}
}

func TestEmptyPayload(t *testing.T) {
	env, err := Build(nil, Plain{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := Parse(env, Plain{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty payload")
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	c := memoCodec()
	mode := NewEncrypted("correct-pw-123456")
	payload := []byte("Hello, World!")

	env, err := c.Build(payload, mode)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h, err := ParseHeader(env)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if int(h.DataLength) != len(payload)+crypto.TagSize {
		t.Fatalf("data length should cover ciphertext and tag, got %d", h.DataLength)
	}
	if len(env) != len(payload)+mode.Overhead() {
		t.Fatalf("envelope length %d, want %d", len(env), len(payload)+mode.Overhead())
	}

	got, err := c.Parse(env, mode)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestWrongPassword(t *testing.T) {
	c := memoCodec()
	env, err := c.Build([]byte("secret"), NewEncrypted("correct-pw-123456"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := c.Parse(env, NewEncrypted("wrong-pw-123456"))
	if !errors.Is(err, stegerr.ErrSecurity) {
		t.Fatalf("expected security error, got %v", err)
	}
	if got != nil {
		t.Fatalf("no output on failure")
	}
}

func TestEncryptedNeedsPassword(t *testing.T) {
	c := fastCodec()
	env, err := c.Build([]byte("secret"), NewEncrypted("correct-pw-123456"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := c.Parse(env, Plain{}); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("expected validation error without password, got %v", err)
	}
}

func TestVersionGate(t *testing.T) {
	c := fastCodec()
	for _, build := range []func() ([]byte, error){
		func() ([]byte, error) { return c.Build([]byte("data"), Plain{}) },
		func() ([]byte, error) { return c.Build([]byte("data"), NewEncrypted("correct-pw-123456")) },
	} {
		env, err := build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		env[0] = 2
		_, err = c.Parse(env, NewEncrypted("correct-pw-123456"))
		if !errors.Is(err, stegerr.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "unsupported format version: 2") {
			t.Fatalf("error should name the detected version: %v", err)
		}
	}
}

func TestTamperDetection(t *testing.T) {
	c := memoCodec()
	mode := NewEncrypted("correct-horse-battery")
	env, err := c.Build([]byte("Hello, World!"), mode)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Every bit of the nonce and the body.
	start := HeaderSize + crypto.SaltSize
	for i := start; i < len(env); i++ {
		for bit := 0; bit < 8; bit++ {
			tampered := bytes.Clone(env)
			tampered[i] ^= 1 << bit
			got, err := c.Parse(tampered, mode)
			if !errors.Is(err, stegerr.ErrSecurity) {
				t.Fatalf("byte %d bit %d: expected security error, got %v", i, bit, err)
			}
			if got != nil {
				t.Fatalf("byte %d bit %d: returned output on failure", i, bit)
			}
		}
	}
}

func TestTruncatedEnvelope(t *testing.T) {
	c := fastCodec()
	env, err := c.Build([]byte("Hello, World!"), NewEncrypted("correct-pw-123456"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, n := range []int{HeaderSize + 3, HeaderSize + crypto.SaltSize + crypto.NonceSize, len(env) - 1} {
		if _, err := c.Parse(env[:n], NewEncrypted("correct-pw-123456")); !errors.Is(err, stegerr.ErrValidation) {
			t.Fatalf("len %d: expected validation error, got %v", n, err)
		}
	}
}

func TestTrailingBytesIgnored(t *testing.T) {
	env, err := Build([]byte("abc"), Plain{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	env = append(env, 0xde, 0xad)
	got, err := Parse(env, Plain{})
	if err != nil || string(got) != "abc" {
		t.Fatalf("trailing bytes should be ignored: %q %v", got, err)
	}
}

func TestSaltAndNonceNeverRepeat(t *testing.T) {
	c := fastCodec()
	mode := NewEncrypted("correct-pw-123456")
	salts := make(map[string]bool)
	nonces := make(map[string]bool)
	for i := 0; i < 500; i++ {
		env, err := c.Build([]byte("same payload"), mode)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		salt := string(env[HeaderSize : HeaderSize+crypto.SaltSize])
		nonce := string(env[HeaderSize+crypto.SaltSize : HeaderSize+crypto.SaltSize+crypto.NonceSize])
		if salts[salt] || nonces[nonce] {
			t.Fatalf("salt or nonce reused after %d builds", i)
		}
		salts[salt] = true
		nonces[nonce] = true
	}
}

func TestModeOverheads(t *testing.T) {
	if (Plain{}).Overhead() != 8 {
		t.Fatalf("plain overhead should be the header only")
	}
	if NewEncrypted("x").Overhead() != 8+16+12+16 {
		t.Fatalf("unexpected encrypted overhead")
	}
	if MaxOverhead() != NewEncrypted("x").Overhead() {
		t.Fatalf("max overhead should be the encrypted overhead")
	}
}

func TestCheckPassword(t *testing.T) {
	if err := CheckPassword("short"); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := CheckPassword("twelve-chars"); err != nil {
		t.Fatalf("12 characters should pass: %v", err)
	}
	// Counted in characters, not bytes.
	if err := CheckPassword("ééééééééééé"); err == nil {
		t.Fatalf("11 two-byte characters should fail")
	}
}

func TestWipedModeCannotSeal(t *testing.T) {
	mode := NewEncrypted("correct-pw-123456")
	mode.Wipe()
	if _, err := fastCodec().Build([]byte("x"), mode); !errors.Is(err, stegerr.ErrValidation) {
		t.Fatalf("expected validation error after wipe, got %v", err)
	}
}
