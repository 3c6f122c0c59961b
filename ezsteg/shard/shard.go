package shard

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/klauspost/reedsolomon"
	"github.com/zeebo/blake3"

	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

const (
	// HeaderSize is the per-shard header length.
	HeaderSize = 48
	// Version is the shard header format version.
	Version = 1
	// MaxShards bounds data+parity so that counts fit in one byte.
	MaxShards = 255
)

var magic = [4]byte{'E', 'Z', 'S', 'H'}

// Join and NewCodec errors. All are validation errors.
var (
	ErrTooManyLost   = stegerr.Validation("shard: too many shards lost, cannot recover")
	ErrInvalidConfig = stegerr.Validation("shard: invalid data/parity configuration")
	ErrMixedSets     = stegerr.Validation("shard: shards belong to different sets")
	ErrDigest        = stegerr.Validation("shard: reconstructed envelope does not match its digest")
)

// Header precedes every shard.
// Format (big endian):
//
//	4 bytes: magic "EZSH"
//	1 byte:  version
//	1 byte:  shard index
//	1 byte:  data shard count
//	1 byte:  parity shard count
//	4 bytes: original envelope size
//	4 bytes: shard body size
//	32 bytes: BLAKE3-256 of the original envelope
type Header struct {
	Index        int
	DataShards   int
	ParityShards int
	Size         int
	ShardSize    int
	Digest       [32]byte
}

func (h Header) marshal(dst []byte) []byte {
	var buf [HeaderSize]byte
	copy(buf[0:4], magic[:])
	buf[4] = Version
	buf[5] = byte(h.Index)
	buf[6] = byte(h.DataShards)
	buf[7] = byte(h.ParityShards)
	binary.BigEndian.PutUint32(buf[8:12], uint32(h.Size))
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.ShardSize))
	copy(buf[16:48], h.Digest[:])
	return append(dst, buf[:]...)
}

// ParseHeader decodes the header at the start of a shard.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, stegerr.Validation("shard: truncated header")
	}
	if !bytes.Equal(b[0:4], magic[:]) {
		return Header{}, stegerr.Validation("shard: missing shard magic")
	}
	if b[4] != Version {
		return Header{}, stegerr.Validation("shard: unsupported shard version: %d", b[4])
	}
	h := Header{
		Index:        int(b[5]),
		DataShards:   int(b[6]),
		ParityShards: int(b[7]),
		Size:         int(binary.BigEndian.Uint32(b[8:12])),
		ShardSize:    int(binary.BigEndian.Uint32(b[12:16])),
	}
	copy(h.Digest[:], b[16:48])
	if h.DataShards == 0 || h.Index >= h.DataShards+h.ParityShards {
		return Header{}, stegerr.Validation("shard: invalid shard index %d of %d+%d", h.Index, h.DataShards, h.ParityShards)
	}
	return h, nil
}

// Codec provides Reed-Solomon splitting and joining of envelopes.
type Codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewCodec creates a codec.
// dataShards: number of data shards
// parityShards: number of parity shards (can lose up to this many)
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 || parityShards < 0 || dataShards+max(parityShards, 1) > MaxShards {
		return nil, ErrInvalidConfig
	}
	enc, err := reedsolomon.New(dataShards, max(parityShards, 1))
	if err != nil {
		return nil, stegerr.Validation("shard: %w", err)
	}
	return &Codec{
		enc:          enc,
		dataShards:   dataShards,
		parityShards: parityShards,
	}, nil
}

// DataShards returns the number of data shards.
func (c *Codec) DataShards() int { return c.dataShards }

// ParityShards returns the number of parity shards.
func (c *Codec) ParityShards() int { return c.parityShards }

// TotalShards returns the total number of shards (data + parity).
func (c *Codec) TotalShards() int { return c.dataShards + c.parityShards }

// ShardSize calculates the shard body size for a given envelope size.
func (c *Codec) ShardSize(size int) int {
	n := (size + c.dataShards - 1) / c.dataShards
	return max(n, 1)
}

// EncodedSize returns the size of one shard including its header.
func (c *Codec) EncodedSize(size int) int {
	return HeaderSize + c.ShardSize(size)
}

// Split encodes env into TotalShards() shards, each prefixed with a Header.
func (c *Codec) Split(env []byte) ([][]byte, error) {
	shardSize := c.ShardSize(len(env))
	bodies := c.bodies(shardSize)
	for i := 0; i < c.dataShards; i++ {
		lo := min(i*shardSize, len(env))
		hi := min(lo+shardSize, len(env))
		copy(bodies[i], env[lo:hi])
	}
	if err := c.encode(bodies); err != nil {
		return nil, err
	}

	h := Header{
		DataShards:   c.dataShards,
		ParityShards: c.parityShards,
		Size:         len(env),
		ShardSize:    shardSize,
		Digest:       blake3.Sum256(env),
	}
	out := make([][]byte, c.TotalShards())
	for i := range out {
		h.Index = i
		s := make([]byte, 0, HeaderSize+shardSize)
		s = h.marshal(s)
		out[i] = append(s, bodies[i]...)
	}
	return out, nil
}

// bodies allocates zeroed shard bodies, including the hidden parity shard
// used when parityShards is 0.
func (c *Codec) bodies(shardSize int) [][]byte {
	n := c.dataShards + max(c.parityShards, 1)
	b := make([][]byte, n)
	for i := range b {
		b[i] = make([]byte, shardSize)
	}
	return b
}

func (c *Codec) encode(bodies [][]byte) error {
	if err := c.enc.Encode(bodies); err != nil {
		return stegerr.Validation("shard: %w", err)
	}
	return nil
}

// Join reconstructs the envelope. Missing or unreadable shards may be nil
// or garbage; they are discarded. Returns ErrTooManyLost when fewer than
// DataShards() valid shards remain.
func (c *Codec) Join(shards [][]byte) ([]byte, error) {
	var ref *Header
	bodies := make([][]byte, c.dataShards+max(c.parityShards, 1))
	for _, s := range shards {
		if s == nil {
			continue
		}
		h, err := ParseHeader(s)
		if err != nil {
			continue
		}
		if h.DataShards != c.dataShards || h.ParityShards != c.parityShards || len(s) < HeaderSize+h.ShardSize {
			continue
		}
		if ref == nil {
			ref = &h
		} else if h.Digest != ref.Digest || h.Size != ref.Size || h.ShardSize != ref.ShardSize {
			return nil, ErrMixedSets
		}
		if h.Index < c.TotalShards() && bodies[h.Index] == nil {
			bodies[h.Index] = s[HeaderSize : HeaderSize+h.ShardSize]
		}
	}
	if ref == nil {
		return nil, ErrTooManyLost
	}

	if err := c.enc.ReconstructData(bodies); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return nil, ErrTooManyLost
		}
		return nil, stegerr.Validation("shard: %w", err)
	}

	env := make([]byte, 0, ref.Size)
	for i := 0; i < c.dataShards && len(env) < ref.Size; i++ {
		remaining := ref.Size - len(env)
		if remaining >= len(bodies[i]) {
			env = append(env, bodies[i]...)
		} else {
			env = append(env, bodies[i][:remaining]...)
		}
	}
	if blake3.Sum256(env) != ref.Digest {
		return nil, ErrDigest
	}
	return env, nil
}

// Overhead returns the storage overhead ratio (e.g., 1.5 for 4+2 config).
func (c *Codec) Overhead() float64 {
	return float64(c.TotalShards()) / float64(c.dataShards)
}
