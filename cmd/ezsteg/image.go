package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheusHen/ezsteg/ezsteg/archive"
	"github.com/TheusHen/ezsteg/ezsteg/capacity"
	"github.com/TheusHen/ezsteg/ezsteg/carrier"
	"github.com/TheusHen/ezsteg/ezsteg/channel/bitplane"
	"github.com/TheusHen/ezsteg/ezsteg/envelope"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

func (a *app) embed(args []string) error {
	fs := a.flags("embed")
	out := fs.StringP("out", "o", "", "output image (default <carrier>_stego.<format>)")
	message := fs.StringP("message", "m", "", "hide this text instead of a file")
	generate := fs.Bool("generate", false, "create a noise carrier sized for the payload")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}

	rest := fs.Args()
	var carrierPath, payloadPath string
	switch {
	case *generate && len(rest) <= 1:
		if len(rest) == 1 {
			payloadPath = rest[0]
		}
	case !*generate && len(rest) == 2:
		carrierPath, payloadPath = rest[0], rest[1]
	case !*generate && len(rest) == 1 && *message != "":
		carrierPath = rest[0]
	default:
		return stegerr.Validation("usage: ezsteg embed [--generate] [CARRIER] PAYLOAD|-m MESSAGE")
	}

	payload, err := a.loadPayload(payloadPath, *message)
	if err != nil {
		return err
	}
	s, err := a.stego(a.encrypt(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	if *generate {
		w, h := s.PlanCarrier(len(payload), a.cfg.Margin)
		p, err := carrier.Generate(w, h, nil)
		if err != nil {
			return err
		}
		a.log.Info("generated carrier", "width", w, "height", h)
		dst := *out
		if dst == "" {
			dst = "carrier_stego." + a.cfg.OutputFormat
		}
		stego, err := s.EmbedImage(p, payload)
		if err != nil {
			return err
		}
		if err := carrier.WriteFile(dst, stego); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "embedded %s into %s (%dx%d)\n", capacity.FormatBytes(int64(len(payload))), dst, w, h)
		return nil
	}

	dst := *out
	if dst == "" {
		dst = a.stegoName(carrierPath, "")
	}
	if err := s.EmbedFile(carrierPath, dst, payload); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "embedded %s into %s\n", capacity.FormatBytes(int64(len(payload))), dst)
	return nil
}

// stegoName derives an output path from a carrier path: photo.jpg becomes
// photo_stego.png, placed in dir when dir is set.
func (a *app) stegoName(src, dir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name := base + "_stego." + a.cfg.OutputFormat
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, name)
}

// loadPayload reads a file, packs a directory, reads stdin for "-", or
// returns message.
func (a *app) loadPayload(path, message string) ([]byte, error) {
	if message != "" {
		if path != "" {
			return nil, stegerr.Validation("give either a payload path or --message, not both")
		}
		return []byte(message), nil
	}
	if path == "" || path == "-" {
		return readAll(a.stdin)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return os.ReadFile(path)
	}
	data, stats, err := archive.Pack(path, archive.Options{
		Compression: archive.Compression(a.cfg.Compression),
		Excludes:    a.cfg.Excludes,
	})
	if err != nil {
		return nil, err
	}
	a.log.Info("packed folder",
		"path", path,
		"files", stats.Files,
		"excluded", stats.Excluded,
		"size", capacity.FormatBytes(stats.Bytes),
		"compressed", capacity.FormatBytes(int64(len(data))))
	return data, nil
}

func (a *app) extract(args []string) error {
	fs := a.flags("extract")
	out := fs.StringP("out", "o", "", "write the payload to this file (default stdout)")
	unpack := fs.String("unpack", "", "unpack an extracted folder archive into this directory")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}
	if fs.NArg() != 1 {
		return stegerr.Validation("usage: ezsteg extract [flags] IMAGE")
	}

	dec, err := carrier.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	env, err := bitplane.Extract(dec.Pixels)
	if err != nil {
		return err
	}
	payload, err := a.open(env)
	if err != nil {
		return err
	}
	return a.emit(payload, *out, *unpack)
}

// open parses env, asking for a password only when it is encrypted.
func (a *app) open(env []byte) ([]byte, error) {
	h, err := envelope.ParseHeader(env)
	if err != nil {
		return nil, err
	}
	if h.Encrypted() && a.plain {
		return nil, stegerr.Validation("payload is encrypted; drop --plain")
	}
	s, err := a.stego(h.Encrypted(), false)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Open(env)
}

// emit writes an extracted payload to out, to stdout, or unpacks it.
func (a *app) emit(payload []byte, out, unpack string) error {
	if unpack != "" {
		if archive.Detect(payload) == "" {
			return stegerr.Validation("payload is not a folder archive; use --out")
		}
		stats, err := archive.Unpack(payload, unpack)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "unpacked %d files (%s) into %s\n", stats.Files, capacity.FormatBytes(stats.Bytes), unpack)
		return nil
	}
	if out == "" {
		if c := archive.Detect(payload); c != "" {
			a.log.Warn("payload is a folder archive; use --unpack DIR to restore it", "compression", c)
		}
		_, err := a.stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(out, payload, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "extracted %s to %s\n", capacity.FormatBytes(int64(len(payload))), out)
	return nil
}

func (a *app) embedMulti(args []string) error {
	fs := a.flags("embed-multi")
	input := fs.StringP("input", "i", "", "payload file or folder (default stdin)")
	message := fs.StringP("message", "m", "", "hide this text instead of a file")
	outDir := fs.StringP("out-dir", "d", "", "directory for the output images (default next to each carrier)")
	parity := fs.Int("parity", -1, "carriers that may be lost (default from configuration)")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}
	if fs.NArg() < 2 {
		return stegerr.Validation("usage: ezsteg embed-multi [flags] CARRIER CARRIER...")
	}
	if *parity < 0 {
		*parity = a.cfg.Parity
	}

	payload, err := a.loadPayload(*input, *message)
	if err != nil {
		return err
	}
	carriers := make([]*bitplane.Pixels, fs.NArg())
	for i, path := range fs.Args() {
		dec, err := carrier.ReadFile(path)
		if err != nil {
			return err
		}
		carriers[i] = dec.Pixels
	}

	s, err := a.stego(a.encrypt(), true)
	if err != nil {
		return err
	}
	defer s.Close()
	out, err := s.EmbedImages(carriers, payload, *parity)
	if err != nil {
		return err
	}
	for i, path := range fs.Args() {
		dst := a.stegoName(path, *outDir)
		if err := carrier.WriteFile(dst, out[i]); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, dst)
	}
	fmt.Fprintf(a.stdout, "embedded %s across %d images; any %d may be lost\n",
		capacity.FormatBytes(int64(len(payload))), len(out), *parity)
	return nil
}

func (a *app) extractMulti(args []string) error {
	fs := a.flags("extract-multi")
	out := fs.StringP("out", "o", "", "write the payload to this file (default stdout)")
	unpack := fs.String("unpack", "", "unpack an extracted folder archive into this directory")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}
	if fs.NArg() == 0 {
		return stegerr.Validation("usage: ezsteg extract-multi [flags] IMAGE...")
	}

	carriers := make([]*bitplane.Pixels, fs.NArg())
	for i, path := range fs.Args() {
		dec, err := carrier.ReadFile(path)
		if err != nil {
			a.log.Warn("skipping unreadable image", "path", path, "error", err)
			continue
		}
		carriers[i] = dec.Pixels
	}

	joiner, err := a.stego(false, false)
	if err != nil {
		return err
	}
	env, err := joiner.JoinImages(carriers)
	if err != nil {
		return err
	}
	payload, err := a.open(env)
	if err != nil {
		return err
	}
	return a.emit(payload, *out, *unpack)
}
