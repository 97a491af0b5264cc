package erasure

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/TheusHen/mailchain/mailchain/storage"
)

// Scheme prefixes every URI issued by Store.
const Scheme = "rs:"

const (
	fieldDataShards   protowire.Number = 1
	fieldParityShards protowire.Number = 2
	fieldSize         protowire.Number = 3
	fieldShard        protowire.Number = 4
	fieldShardURI     protowire.Number = 1
	fieldShardDigest  protowire.Number = 2
)

type shardRef struct {
	URI    string
	Digest string
}

// manifest records where the shards of one payload live.
type manifest struct {
	DataShards   int
	ParityShards int
	Size         int
	Shards       []shardRef
}

func (m *manifest) uri() string {
	var b []byte
	b = protowire.AppendTag(b, fieldDataShards, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.DataShards))
	b = protowire.AppendTag(b, fieldParityShards, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.ParityShards))
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Size))
	for _, s := range m.Shards {
		var ref []byte
		ref = protowire.AppendTag(ref, fieldShardURI, protowire.BytesType)
		ref = protowire.AppendString(ref, s.URI)
		ref = protowire.AppendTag(ref, fieldShardDigest, protowire.BytesType)
		ref = protowire.AppendString(ref, s.Digest)
		b = protowire.AppendTag(b, fieldShard, protowire.BytesType)
		b = protowire.AppendBytes(b, ref)
	}
	return Scheme + base64.RawURLEncoding.EncodeToString(b)
}

func parseManifest(uri string) (*manifest, error) {
	if !strings.HasPrefix(uri, Scheme) {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidURI, uri)
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(uri, Scheme))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidURI, err)
	}

	m := &manifest{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", storage.ErrInvalidURI, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case typ == protowire.VarintType && num <= fieldSize:
			v, n2 := protowire.ConsumeVarint(b)
			if n2 < 0 {
				return nil, fmt.Errorf("%w: %v", storage.ErrInvalidURI, protowire.ParseError(n2))
			}
			if v > math.MaxInt32 {
				return nil, fmt.Errorf("%w: field %d out of range", storage.ErrInvalidURI, num)
			}
			switch num {
			case fieldDataShards:
				m.DataShards = int(v)
			case fieldParityShards:
				m.ParityShards = int(v)
			case fieldSize:
				m.Size = int(v)
			}
			n = n2
		case typ == protowire.BytesType && num == fieldShard:
			v, n2 := protowire.ConsumeBytes(b)
			if n2 < 0 {
				return nil, fmt.Errorf("%w: %v", storage.ErrInvalidURI, protowire.ParseError(n2))
			}
			ref, err := parseShardRef(v)
			if err != nil {
				return nil, err
			}
			m.Shards = append(m.Shards, ref)
			n = n2
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", storage.ErrInvalidURI, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}

	if m.DataShards <= 0 || m.ParityShards <= 0 || m.Size < 0 || len(m.Shards) != m.DataShards+m.ParityShards {
		return nil, fmt.Errorf("%w: inconsistent manifest", storage.ErrInvalidURI)
	}
	return m, nil
}

func parseShardRef(b []byte) (shardRef, error) {
	var ref shardRef
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ref, fmt.Errorf("%w: %v", storage.ErrInvalidURI, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
		} else {
			var v string
			v, n = protowire.ConsumeString(b)
			switch num {
			case fieldShardURI:
				ref.URI = v
			case fieldShardDigest:
				ref.Digest = v
			}
		}
		if n < 0 {
			return ref, fmt.Errorf("%w: %v", storage.ErrInvalidURI, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return ref, nil
}
