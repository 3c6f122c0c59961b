// ezsteg hides files, folders and messages inside images and text.
//
// Images carry the payload in the least-significant bits of their R, G and
// B values; text carries it as invisible Unicode variation selectors after
// a visible base character. Payloads are encrypted with a password unless
// --plain is given or the configuration selects plain mode.
//
// Usage:
//
//	ezsteg <command> [flags] [args]
//
// Run "ezsteg help" for the list of commands.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/TheusHen/ezsteg/ezsteg/config"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

const (
	envPassword = "EZSTEG_PASSWORD"
	envConfig   = "EZSTEG_CONFIG"
)

func main() {
	a := &app{
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		getenv:       os.Getenv,
		readPassword: terminalPassword,
	}
	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to process exit codes: 2 for bad input,
// 3 for a failed decryption, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, stegerr.ErrValidation):
		return 2
	case errors.Is(err, stegerr.ErrSecurity):
		return 3
	default:
		return 1
	}
}

type command struct {
	name    string
	args    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"embed", "[CARRIER] PAYLOAD", "hide a file, folder or message in an image", (*app).embed},
	{"extract", "IMAGE", "recover the payload hidden in an image", (*app).extract},
	{"embed-multi", "CARRIER...", "spread a payload over several images with parity", (*app).embedMulti},
	{"extract-multi", "IMAGE...", "reassemble a payload spread over several images", (*app).extractMulti},
	{"capacity", "[IMAGE...]", "show how much an image holds, or what a payload needs", (*app).capacity},
	{"carrier", "", "create a noise carrier image", (*app).carrier},
	{"text-embed", "[PAYLOAD]", "hide a file or message in a line of text", (*app).textEmbed},
	{"text-extract", "[TEXT_FILE]", "recover the payload hidden in text", (*app).textExtract},
}

// app holds process-wide state shared by the commands.
type app struct {
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	getenv       func(string) string
	readPassword func(prompt string) ([]byte, error)

	// Common flags.
	configPath   string
	logLevel     string
	passwordFile string
	plain        bool

	cfg config.Config
	log *slog.Logger
}

func (a *app) run(args []string) error {
	if len(args) == 0 {
		a.usage()
		return stegerr.Validation("no command given")
	}
	name := args[0]
	switch name {
	case "help", "-h", "--help":
		a.usage()
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(a, args[1:])
		}
	}
	a.usage()
	return stegerr.Validation("unknown command %q", name)
}

func (a *app) usage() {
	var b strings.Builder
	b.WriteString("Usage: ezsteg <command> [flags] [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-14s %s\n", c.name, c.summary)
	}
	b.WriteString("\nRun \"ezsteg <command> --help\" for command flags.\n")
	fmt.Fprint(a.stderr, b.String())
}

// flags returns a flag set for the named command with the common flags
// registered.
func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("ezsteg "+name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&a.configPath, "config", "", "configuration file (default $"+envConfig+")")
	fs.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides the configuration)")
	fs.StringVar(&a.passwordFile, "password-file", "", "read the password from this file instead of prompting")
	fs.BoolVar(&a.plain, "plain", false, "do not encrypt (embedding) or expect no encryption")
	return fs
}

// parse parses args and loads configuration. It returns errHelp when help
// was requested.
func (a *app) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return stegerr.Validation("%v", err)
	}
	path := a.configPath
	if path == "" {
		path = a.getenv(envConfig)
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	return nil
}

var errHelp = errors.New("help requested")

// handled turns a help request into success.
func handled(err error) error {
	if errors.Is(err, errHelp) {
		return nil
	}
	return err
}

// encrypt reports whether new payloads are sealed.
func (a *app) encrypt() bool {
	return !a.plain && a.cfg.Encrypted()
}
