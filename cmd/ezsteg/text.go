package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/TheusHen/ezsteg/ezsteg/channel/selector"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

func (a *app) textEmbed(args []string) error {
	fs := a.flags("text-embed")
	message := fs.StringP("message", "m", "", "hide this text instead of a file")
	base := fs.String("base", "", "visible base character (default from configuration)")
	out := fs.StringP("out", "o", "", "write the carrier text to this file (default stdout)")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}
	if fs.NArg() > 1 {
		return stegerr.Validation("usage: ezsteg text-embed [flags] [PAYLOAD]")
	}

	baseRune := a.cfg.Base()
	if *base != "" {
		if utf8.RuneCountInString(*base) != 1 {
			return stegerr.Validation("--base must be a single character")
		}
		baseRune, _ = utf8.DecodeRuneInString(*base)
	}
	payload, err := a.loadPayload(fs.Arg(0), *message)
	if err != nil {
		return err
	}

	s, err := a.stego(a.encrypt(), true)
	if err != nil {
		return err
	}
	defer s.Close()
	text, err := s.EmbedText(payload, baseRune)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err := fmt.Fprintln(a.stdout, text)
		return err
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %d characters to %s\n", utf8.RuneCountInString(text), *out)
	return nil
}

func (a *app) textExtract(args []string) error {
	fs := a.flags("text-extract")
	out := fs.StringP("out", "o", "", "write the payload to this file (default stdout)")
	unpack := fs.String("unpack", "", "unpack an extracted folder archive into this directory")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}

	var data []byte
	var err error
	switch fs.NArg() {
	case 0:
		data, err = readAll(a.stdin)
	case 1:
		data, err = os.ReadFile(fs.Arg(0))
	default:
		return stegerr.Validation("usage: ezsteg text-extract [flags] [TEXT_FILE]")
	}
	if err != nil {
		return err
	}

	env, err := selector.Extract(strings.TrimLeft(string(data), " \t\r\n"))
	if err != nil {
		return err
	}
	payload, err := a.open(env)
	if err != nil {
		return err
	}
	return a.emit(payload, *out, *unpack)
}
