package ezsteg

import (
	"log/slog"

	"github.com/TheusHen/ezsteg/ezsteg/capacity"
	"github.com/TheusHen/ezsteg/ezsteg/channel"
	"github.com/TheusHen/ezsteg/ezsteg/channel/bitplane"
	"github.com/TheusHen/ezsteg/ezsteg/channel/selector"
	"github.com/TheusHen/ezsteg/ezsteg/envelope"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// Option configures a Stego.
type Option func(*Stego) error

// WithPassword switches to encrypted mode. Passwords shorter than
// envelope.MinPasswordLength characters are rejected.
func WithPassword(password string) Option {
	return func(s *Stego) error {
		if err := envelope.CheckPassword(password); err != nil {
			return err
		}
		s.mode = envelope.NewEncrypted(password)
		return nil
	}
}

// WithLogger sets the logger. Stego is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stego) error {
		if l != nil {
			s.log = l
		}
		return nil
	}
}

// Stego embeds and extracts payloads in a fixed mode.
// Without WithPassword it works in plain mode.
type Stego struct {
	mode envelope.Mode
	log  *slog.Logger
}

// New builds a Stego from opts.
func New(opts ...Option) (*Stego, error) {
	s := &Stego{
		mode: envelope.Plain{},
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Encrypted reports whether payloads are sealed with a password.
func (s *Stego) Encrypted() bool {
	_, ok := s.mode.(*envelope.Encrypted)
	return ok
}

// Overhead returns the envelope bytes added to every payload.
func (s *Stego) Overhead() int { return s.mode.Overhead() }

// Seal wraps payload in an envelope.
func (s *Stego) Seal(payload []byte) ([]byte, error) {
	return envelope.Build(payload, s.mode)
}

// Open unwraps an envelope produced by Seal.
func (s *Stego) Open(env []byte) ([]byte, error) {
	return envelope.Parse(env, s.mode)
}

// Embed seals payload and writes the envelope into c. Capacity is checked
// before any key derivation.
func (s *Stego) Embed(c channel.Codec, payload []byte) error {
	if need := len(payload) + s.Overhead(); need > c.Capacity() {
		return stegerr.Validation("payload too large: %s needs %s of %s carrier capacity",
			capacity.FormatBytes(int64(len(payload))), capacity.FormatBytes(int64(need)),
			capacity.FormatBytes(int64(c.Capacity())))
	}
	env, err := s.Seal(payload)
	if err != nil {
		return err
	}
	if err := c.Embed(env); err != nil {
		return err
	}
	s.log.Debug("embedded payload",
		"channel", c.Kind(),
		"payload", len(payload),
		"envelope", len(env),
		"encrypted", s.Encrypted())
	return nil
}

// Extract reads an envelope from c and opens it.
func (s *Stego) Extract(c channel.Codec) ([]byte, error) {
	env, err := c.Extract()
	if err != nil {
		return nil, err
	}
	payload, err := s.Open(env)
	if err != nil {
		return nil, err
	}
	s.log.Debug("extracted payload", "channel", c.Kind(), "payload", len(payload))
	return payload, nil
}

// EmbedImage returns a copy of p carrying payload. p is never modified.
func (s *Stego) EmbedImage(p *bitplane.Pixels, payload []byte) (*bitplane.Pixels, error) {
	c := &bitplane.Carrier{Pixels: p}
	if err := s.Embed(c, payload); err != nil {
		return nil, err
	}
	return c.Pixels, nil
}

// ExtractImage recovers the payload hidden in p.
func (s *Stego) ExtractImage(p *bitplane.Pixels) ([]byte, error) {
	return s.Extract(&bitplane.Carrier{Pixels: p})
}

// EmbedText returns base followed by the selectors encoding payload.
// A zero base selects selector.DefaultBase.
func (s *Stego) EmbedText(payload []byte, base rune) (string, error) {
	c := &selector.Carrier{Base: base}
	if err := s.Embed(c, payload); err != nil {
		return "", err
	}
	return c.Text, nil
}

// ExtractText recovers the payload hidden in text.
func (s *Stego) ExtractText(text string) ([]byte, error) {
	return s.Extract(&selector.Carrier{Text: text})
}

// Capacity returns the largest payload a width x height image holds in the
// current mode.
func (s *Stego) Capacity(width, height int) int {
	return bitplane.Capacity(width, height, s.Overhead())
}

// PlanCarrier returns the dimensions of a square image able to hold
// payloadSize bytes in the current mode, inflated by margin.
func (s *Stego) PlanCarrier(payloadSize int, margin float64) (width, height int) {
	return capacity.RequiredGeometry(payloadSize, s.Overhead(), margin)
}

// PlanText returns the length in characters of a text carrier for
// payloadSize bytes in the current mode.
func (s *Stego) PlanText(payloadSize int) int {
	return capacity.RequiredTextLength(payloadSize, s.Overhead())
}

// Close overwrites the retained password. The Stego cannot seal or open
// encrypted envelopes afterwards.
func (s *Stego) Close() error {
	if m, ok := s.mode.(*envelope.Encrypted); ok {
		m.Wipe()
	}
	return nil
}
