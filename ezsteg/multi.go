package ezsteg

import (
	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/ezsteg/ezsteg/capacity"
	"github.com/TheusHen/ezsteg/ezsteg/channel/bitplane"
	"github.com/TheusHen/ezsteg/ezsteg/envelope"
	"github.com/TheusHen/ezsteg/ezsteg/shard"
	"github.com/TheusHen/ezsteg/ezsteg/stegerr"
)

// EmbedImages spreads payload over carriers with parity carriers of
// redundancy: any parity carriers may later be lost or damaged. The payload
// is sealed once, split into shards, and every shard is written into its
// carrier inside its own plain envelope. Inputs are never modified.
func (s *Stego) EmbedImages(carriers []*bitplane.Pixels, payload []byte, parity int) ([]*bitplane.Pixels, error) {
	codec, err := shard.NewCodec(len(carriers)-parity, parity)
	if err != nil {
		return nil, err
	}
	envLen := len(payload) + s.Overhead()
	need := codec.EncodedSize(envLen) + envelope.HeaderSize
	for i, p := range carriers {
		if p == nil {
			return nil, stegerr.Validation("carrier %d is missing", i)
		}
		if have := len(p.Pix) / 8; need > have {
			return nil, stegerr.Validation("carrier %d too small: shard needs %s, carrier holds %s",
				i, capacity.FormatBytes(int64(need)), capacity.FormatBytes(int64(have)))
		}
	}

	env, err := s.Seal(payload)
	if err != nil {
		return nil, err
	}
	shards, err := codec.Split(env)
	if err != nil {
		return nil, err
	}

	out := make([]*bitplane.Pixels, len(carriers))
	var g errgroup.Group
	for i := range carriers {
		g.Go(func() error {
			wrapped, err := envelope.Build(shards[i], envelope.Plain{})
			if err != nil {
				return err
			}
			out[i], err = bitplane.Embed(carriers[i], wrapped)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Debug("embedded payload across carriers",
		"carriers", len(carriers),
		"data", codec.DataShards(),
		"parity", codec.ParityShards(),
		"payload", len(payload))
	return out, nil
}

// ExtractImages reassembles a payload written by EmbedImages. Carriers may
// be passed in any order; nil or unreadable carriers count as lost.
func (s *Stego) ExtractImages(carriers []*bitplane.Pixels) ([]byte, error) {
	env, err := s.JoinImages(carriers)
	if err != nil {
		return nil, err
	}
	return s.Open(env)
}

// shardSet identifies the shards produced by one Split call.
type shardSet struct {
	digest       [32]byte
	size         int
	dataShards   int
	parityShards int
}

// JoinImages rebuilds the envelope spread over carriers by EmbedImages
// without opening it. When carriers hold shards of more than one set, the
// set found in the most carriers is used and the others count as lost.
func (s *Stego) JoinImages(carriers []*bitplane.Pixels) ([]byte, error) {
	shards := make([][]byte, len(carriers))
	var g errgroup.Group
	for i, p := range carriers {
		if p == nil {
			continue
		}
		g.Go(func() error {
			env, err := bitplane.Extract(p)
			if err != nil {
				return nil
			}
			sh, err := envelope.Parse(env, envelope.Plain{})
			if err != nil {
				return nil
			}
			shards[i] = sh
			return nil
		})
	}
	_ = g.Wait()

	sets := make([]shardSet, len(shards))
	votes := make(map[shardSet]int)
	var best shardSet
	for i, sh := range shards {
		h, err := shard.ParseHeader(sh)
		if err != nil {
			shards[i] = nil
			s.log.Debug("carrier holds no readable shard", "carrier", i, "error", err)
			continue
		}
		set := shardSet{h.Digest, h.Size, h.DataShards, h.ParityShards}
		sets[i] = set
		votes[set]++
		if votes[set] > votes[best] {
			best = set
		}
	}
	if votes[best] == 0 {
		return nil, shard.ErrTooManyLost
	}

	lost := 0
	for i := range shards {
		if shards[i] != nil && sets[i] != best {
			s.log.Info("ignoring shard from another carrier set", "carrier", i)
			shards[i] = nil
		}
		if shards[i] == nil {
			lost++
		}
	}
	codec, err := shard.NewCodec(best.dataShards, best.parityShards)
	if err != nil {
		return nil, err
	}
	if lost > 0 {
		s.log.Info("reconstructing from partial carrier set", "lost", lost, "parity", codec.ParityShards())
	}
	return codec.Join(shards)
}
