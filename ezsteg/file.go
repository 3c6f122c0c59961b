package ezsteg

import (
	"github.com/TheusHen/ezsteg/ezsteg/carrier"
)

// EmbedFile hides payload in the image at src and writes the result to dst,
// whose extension picks a lossless output format.
func (s *Stego) EmbedFile(src, dst string, payload []byte) error {
	dec, err := carrier.ReadFile(src)
	if err != nil {
		return err
	}
	if dec.Converted {
		s.log.Info("carrier converted to RGB", "path", src, "format", dec.Format)
	}
	out, err := s.EmbedImage(dec.Pixels, payload)
	if err != nil {
		return err
	}
	if err := carrier.WriteFile(dst, out); err != nil {
		return err
	}
	s.log.Info("payload embedded", "path", dst, "bytes", len(payload))
	return nil
}

// ExtractFile recovers the payload hidden in the image at path.
func (s *Stego) ExtractFile(path string) ([]byte, error) {
	dec, err := carrier.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.ExtractImage(dec.Pixels)
}
