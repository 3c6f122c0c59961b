package envelope

import (
	"unicode/utf8"

	"github.com/TheusHen/ezsteg/ezsteg/crypto"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// MinPasswordLength is the minimum password length, in characters, callers
// must enforce before building an Encrypted mode.
const MinPasswordLength = 12

// Mode selects whether an envelope body is encrypted.
// It is either Plain or *Encrypted; no other implementations exist.
type Mode interface {
	// Overhead returns the envelope bytes added around a payload.
	Overhead() int
	mode()
}

// Plain stores the payload as-is.
type Plain struct{}

// Overhead is the header alone.
func (Plain) Overhead() int { return HeaderSize }
func (Plain) mode() {}

// Encrypted seals the payload under a key derived from Password.
type Encrypted struct {
	password []byte
}

// NewEncrypted returns an Encrypted mode holding a private copy of password.
// The length precondition is not checked here; see CheckPassword.
func NewEncrypted(password string) *Encrypted {
	return &Encrypted{password: []byte(password)}
}

// Overhead is the header, salt, nonce and authentication tag.
func (*Encrypted) Overhead() int {
	return HeaderSize + crypto.SaltSize + crypto.NonceSize + crypto.TagSize
}
func (*Encrypted) mode() {}

// Wipe overwrites the retained password bytes. The mode is unusable afterwards.
func (e *Encrypted) Wipe() {
	crypto.Wipe(e.password)
	e.password = nil
}

// MaxOverhead is the worst-case overhead over all modes, for capacity checks
// made before the mode is known.
func MaxOverhead() int { return (*Encrypted)(nil).Overhead() }

// CheckPassword enforces the minimum password length precondition.
func CheckPassword(password string) error {
	if n := utf8.RuneCountInString(password); n < MinPasswordLength {
		return stegerr.Validation("password must be at least %d characters (got %d)", MinPasswordLength, n)
	}
	return nil
}
