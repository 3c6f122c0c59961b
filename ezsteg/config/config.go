// Package config loads ezsteg settings from a YAML file.
//
// Only presentation and workflow defaults live here. Format constants (the
// envelope version, KDF iteration count, salt and nonce sizes) are fixed in
// code and cannot be configured.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TheusHen/ezsteg/ezsteg/archive"
	"github.com/TheusHen/ezsteg/ezsteg/capacity"
	"github.com/TheusHen/ezsteg/ezsteg/channel/selector"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// Config holds user-adjustable defaults.
type Config struct {
	// Mode is "encrypted" (default) or "plain".
	Mode string `yaml:"mode" validate:"oneof=encrypted plain"`
	// Margin inflates generated carriers, 1.2 = 20% headroom.
	Margin float64 `yaml:"margin" validate:"gte=1,lte=16"`
	// BaseChar is the visible character carrying text payloads.
	BaseChar string `yaml:"base_char" validate:"required"`
	// Compression is used when packing folders: "gzip" or "lz4".
	Compression string `yaml:"compression" validate:"oneof=gzip lz4"`
	// OutputFormat is the image format written when the output path has no
	// extension.
	OutputFormat string `yaml:"output_format" validate:"oneof=png bmp tiff"`
	// Excludes are folder packing exclusion patterns.
	Excludes []string `yaml:"excludes" validate:"dive,required"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// Parity is the number of parity carriers used when embedding across
	// several images.
	Parity int `yaml:"parity" validate:"gte=0,lte=32"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:         "encrypted",
		Margin:       capacity.DefaultMargin,
		BaseChar:     string(selector.DefaultBase),
		Compression:  string(archive.CompressionGzip),
		OutputFormat: "png",
		Excludes:     append([]string(nil), archive.DefaultExcludes...),
		LogLevel:     "info",
		Parity:       1,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return stegerr.Validation("config: %s", strings.Join(msgs, "; "))
		}
		return stegerr.Validation("config: %w", err)
	}
	if utf8.RuneCountInString(c.BaseChar) != 1 {
		return stegerr.Validation("config: base_char must be a single character, got %q", c.BaseChar)
	}
	r, _ := utf8.DecodeRuneInString(c.BaseChar)
	if selector.IsSelector(r) {
		return stegerr.Validation("config: base_char cannot be a variation selector")
	}
	return nil
}

// Base returns BaseChar as a rune.
func (c Config) Base() rune {
	r, _ := utf8.DecodeRuneInString(c.BaseChar)
	return r
}

// Encrypted reports whether Mode selects encryption.
func (c Config) Encrypted() bool { return c.Mode != "plain" }

// Level returns LogLevel as a slog.Level.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Load reads path over the defaults and validates the result. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping fields the document does not set,
// then validates.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return stegerr.Validation("config: %w", err)
	}
	return cfg.Validate()
}
