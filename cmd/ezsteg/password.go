package main

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/TheusHen/ezsteg/ezsteg"
	"github.com/TheusHen/ezsteg/ezsteg/crypto"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// terminalPassword prompts on stderr and reads a password from the
// terminal without echo.
func terminalPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, stegerr.Validation("no password given: use --password-file, $%s or run from a terminal", envPassword)
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// password returns the password from --password-file, the environment or
// the terminal, in that order. confirm asks twice when prompting.
func (a *app) password(confirm bool) ([]byte, error) {
	if a.passwordFile != "" {
		data, err := os.ReadFile(a.passwordFile)
		if err != nil {
			return nil, err
		}
		return bytes.TrimRight(data, "\r\n"), nil
	}
	if pw := a.getenv(envPassword); pw != "" {
		return []byte(pw), nil
	}
	pw, err := a.readPassword("Password: ")
	if err != nil {
		return nil, err
	}
	if confirm {
		again, err := a.readPassword("Confirm password: ")
		if err != nil {
			crypto.Wipe(pw)
			return nil, err
		}
		match := bytes.Equal(pw, again)
		crypto.Wipe(again)
		if !match {
			crypto.Wipe(pw)
			return nil, stegerr.Validation("passwords do not match")
		}
	}
	return pw, nil
}

// stego builds a Stego, asking for a password when encrypted is set.
func (a *app) stego(encrypted, confirm bool) (*ezsteg.Stego, error) {
	opts := []ezsteg.Option{ezsteg.WithLogger(a.log)}
	if encrypted {
		pw, err := a.password(confirm)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ezsteg.WithPassword(string(pw)))
		crypto.Wipe(pw)
	}
	return ezsteg.New(opts...)
}
