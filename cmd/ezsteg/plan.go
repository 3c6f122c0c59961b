package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/TheusHen/ezsteg/ezsteg/capacity"
	"github.com/TheusHen/ezsteg/ezsteg/carrier"
	"github.com/TheusHen/ezsteg/ezsteg/channel/bitplane"
	"github.com/TheusHen/ezsteg/ezsteg/envelope"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// parseSize accepts a byte count ("4096", "1.5MiB", "10 MB") or the path of
// an existing file, whose size is used.
func parseSize(s string) (int, error) {
	if fi, err := os.Stat(s); err == nil && !fi.IsDir() {
		return int(fi.Size()), nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, stegerr.Validation("invalid size %q: %w", s, err)
	}
	if n > envelope.MaxDataLength {
		return 0, stegerr.Validation("size %s exceeds the %s envelope limit", s, capacity.FormatBytes(envelope.MaxDataLength))
	}
	return int(n), nil
}

// overhead returns the envelope overhead for the selected mode.
func (a *app) overhead() int {
	if a.encrypt() {
		return envelope.MaxOverhead()
	}
	return envelope.Plain{}.Overhead()
}

func (a *app) capacity(args []string) error {
	fs := a.flags("capacity")
	size := fs.String("size", "", "plan carriers for a payload of this size or file")
	margin := fs.Float64("margin", 0, "headroom factor for planned images (default from configuration)")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}
	if *margin == 0 {
		*margin = a.cfg.Margin
	}

	if *size != "" {
		n, err := parseSize(*size)
		if err != nil {
			return err
		}
		o := a.overhead()
		w, h := capacity.RequiredGeometry(n, o, *margin)
		fmt.Fprintf(a.stdout, "payload:  %s (+%d bytes envelope)\n", capacity.FormatBytes(int64(n)), o)
		fmt.Fprintf(a.stdout, "image:    %dx%d or larger (margin %s)\n", w, h, strconv.FormatFloat(*margin, 'g', -1, 64))
		fmt.Fprintf(a.stdout, "text:     %d characters\n", capacity.RequiredTextLength(n, o))
		return nil
	}

	if fs.NArg() == 0 {
		return stegerr.Validation("usage: ezsteg capacity --size N | IMAGE...")
	}
	for _, path := range fs.Args() {
		dec, err := carrier.ReadFile(path)
		if err != nil {
			return err
		}
		p := dec.Pixels
		fmt.Fprintf(a.stdout, "%s: %dx%d %s, plain %s, encrypted %s\n",
			path, p.Width, p.Height, dec.Format,
			capacity.FormatBytes(int64(bitplane.Capacity(p.Width, p.Height, envelope.Plain{}.Overhead()))),
			capacity.FormatBytes(int64(bitplane.Capacity(p.Width, p.Height, envelope.MaxOverhead()))))
		if dec.Converted {
			fmt.Fprintf(a.stdout, "%s: will be converted to RGB when embedding\n", path)
		}
	}
	return nil
}

func (a *app) carrier(args []string) error {
	fs := a.flags("carrier")
	size := fs.String("size", "", "size the image for a payload of this size or file")
	width := fs.Int("width", 0, "image width")
	height := fs.Int("height", 0, "image height")
	out := fs.StringP("out", "o", "", "output image (default carrier.<format>)")
	if err := a.parse(fs, args); err != nil {
		return handled(err)
	}

	w, h := *width, *height
	switch {
	case *size != "" && w == 0 && h == 0:
		n, err := parseSize(*size)
		if err != nil {
			return err
		}
		w, h = capacity.RequiredGeometry(n, a.overhead(), a.cfg.Margin)
	case *size == "" && w > 0 && h > 0:
	default:
		return stegerr.Validation("give either --size or both --width and --height")
	}

	p, err := carrier.Generate(w, h, nil)
	if err != nil {
		return err
	}
	dst := *out
	if dst == "" {
		dst = "carrier." + a.cfg.OutputFormat
	}
	if err := carrier.WriteFile(dst, p); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %dx%d carrier to %s (holds %s encrypted)\n", w, h, dst,
		capacity.FormatBytes(int64(bitplane.Capacity(w, h, envelope.MaxOverhead()))))
	return nil
}
