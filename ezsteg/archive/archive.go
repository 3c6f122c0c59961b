package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// DefaultExcludes skips build artefacts, VCS metadata and editor state.
var DefaultExcludes = []string{
	"*.pyc",
	"__pycache__/*",
	".git/*",
	".svn/*",
	".DS_Store",
	"Thumbs.db",
	"*.tmp",
	"*.log",
	".vscode/*",
	".idea/*",
	"node_modules/*",
	"venv/*",
	".env/*",
}

// Options controls Pack.
type Options struct {
	Compression Compression
	// Excludes are glob patterns matched against each file's slash-separated
	// path relative to the root and against its base name. A pattern of the
	// form "dir/*" excludes everything below any directory named dir.
	Excludes []string
}

// Stats summarises a Pack call.
type Stats struct {
	Files    int
	Excluded int
	// Bytes is the total uncompressed file size.
	Bytes int64
}

// Excluded reports whether the slash-separated relative path rel matches
// any of patterns.
func Excluded(rel string, patterns []string) bool {
	base := path.Base(rel)
	dirs := strings.Split(path.Dir(rel), "/")
	for _, p := range patterns {
		if ok, _ := path.Match(p, base); ok {
			return true
		}
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if dir, found := strings.CutSuffix(p, "/*"); found {
			for _, d := range dirs {
				if ok, _ := path.Match(dir, d); ok && d != "." {
					return true
				}
			}
		}
	}
	return false
}

// Pack archives the regular files below root.
func Pack(root string, opts Options) ([]byte, Stats, error) {
	var stats Stats
	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, err
	}
	if !info.IsDir() {
		return nil, stats, stegerr.Validation("archive: %s is not a directory", root)
	}

	var buf bytes.Buffer
	zw, release, err := compressor(&buf, opts.Compression)
	if err != nil {
		return nil, stats, err
	}
	defer release()
	tw := tar.NewWriter(zw)
	closed := false
	defer func() {
		if !closed {
			tw.Close()
			zw.Close()
		}
	}()

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if Excluded(rel, opts.Excludes) {
			stats.Excluded++
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return addFile(tw, p, rel, fi, &stats)
	})
	if err != nil {
		return nil, stats, err
	}
	if stats.Files == 0 {
		return nil, stats, stegerr.Validation("archive: no files to pack after applying exclusion patterns")
	}
	closed = true
	if err := tw.Close(); err != nil {
		return nil, stats, err
	}
	if err := zw.Close(); err != nil {
		return nil, stats, err
	}
	return buf.Bytes(), stats, nil
}

func addFile(tw *tar.Writer, p, rel string, fi fs.FileInfo, stats *Stats) error {
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = rel
	// Ownership is meaningless on the receiving side.
	hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.Copy(tw, f)
	if err != nil {
		return err
	}
	stats.Files++
	stats.Bytes += n
	return nil
}

// Unpack extracts an archive produced by Pack into dest, creating it if
// needed. Entries that would land outside dest are rejected.
func Unpack(data []byte, dest string) (Stats, error) {
	var stats Stats
	zr, release, err := decompressor(data)
	if err != nil {
		return stats, err
	}
	defer release()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return stats, err
	}
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, stegerr.Validation("archive: corrupt archive: %w", err)
		}
		target, err := entryPath(dest, hdr.Name)
		if err != nil {
			return stats, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return stats, err
			}
		case tar.TypeReg:
			n, err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return stats, err
			}
			stats.Files++
			stats.Bytes += n
		default:
			stats.Excluded++
		}
	}
}

func entryPath(dest, name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || strings.HasPrefix(name, "/") || strings.Contains("/"+name+"/", "/../") {
		return "", stegerr.Validation("archive: unsafe entry name %q", name)
	}
	return filepath.Join(dest, filepath.FromSlash(clean)), nil
}

func writeEntry(target string, r io.Reader, perm fs.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
