package erasure

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/mailchain/mailchain/storage"
)

// Store shards payloads across backends. Shard i of every payload goes to
// backends[i], so losing one backend costs at most one shard per payload.
type Store struct {
	codec    *Codec
	backends []storage.Store
	log      logrus.FieldLogger
}

// NewStore returns a store with data+parity shards over exactly that many backends.
func NewStore(data, parity int, backends []storage.Store, log logrus.FieldLogger) (*Store, error) {
	codec, err := NewCodec(data, parity)
	if err != nil {
		return nil, err
	}
	if len(backends) != codec.TotalShards() {
		return nil, fmt.Errorf("%w: %d backends for %d+%d shards", ErrInvalidConfig, len(backends), data, parity)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Store{codec: codec, backends: backends, log: log.WithField("component", "erasure")}, nil
}

// Put encodes data and writes every shard. All shard writes must succeed.
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", storage.ErrCorrupt)
	}
	shards, err := s.codec.EncodeData(data)
	if err != nil {
		return "", err
	}

	m := &manifest{
		DataShards:   s.codec.DataShards(),
		ParityShards: s.codec.ParityShards(),
		Size:         len(data),
		Shards:       make([]shardRef, len(shards)),
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		i, shard := i, shard
		g.Go(func() error {
			uri, err := s.backends[i].Put(gctx, shard)
			if err != nil {
				return fmt.Errorf("erasure: put shard %d: %w", i, err)
			}
			m.Shards[i] = shardRef{URI: uri, Digest: storage.ContentAddress(shard)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"bytes":    len(data),
		"shards":   len(shards),
		"overhead": s.codec.Overhead(),
	}).Debug("payload stored")
	return m.uri(), nil
}

// Get fetches shards, treating unreachable or corrupt ones as lost, and
// reconstructs the payload when enough survive.
func (s *Store) Get(ctx context.Context, uri string) ([]byte, error) {
	m, err := parseManifest(uri)
	if err != nil {
		return nil, err
	}
	if m.DataShards != s.codec.DataShards() || m.ParityShards != s.codec.ParityShards() {
		return nil, fmt.Errorf("%w: manifest is %d+%d, store is %d+%d", storage.ErrInvalidURI,
			m.DataShards, m.ParityShards, s.codec.DataShards(), s.codec.ParityShards())
	}

	shards := make([][]byte, len(m.Shards))
	var g errgroup.Group
	for i, ref := range m.Shards {
		i, ref := i, ref
		g.Go(func() error {
			shard, err := s.backends[i].Get(ctx, ref.URI)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.WithError(err).WithField("shard", i).Warn("shard unavailable")
				return nil
			}
			if storage.ContentAddress(shard) != ref.Digest {
				s.log.WithField("shard", i).Warn("shard digest mismatch")
				return nil
			}
			shards[i] = shard
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lost := 0
	for _, sh := range shards {
		if sh == nil {
			lost++
		}
	}
	if lost > 0 {
		if err := s.codec.ReconstructData(shards); err != nil {
			if errors.Is(err, ErrTooManyLost) {
				return nil, fmt.Errorf("%w: %d of %d shards lost", storage.ErrNotFound, lost, len(shards))
			}
			return nil, err
		}
		s.log.WithField("lost", lost).Info("payload reconstructed")
	}
	// The size comes from the URI, which the sender controls.
	if capacity := s.codec.Capacity(shards); m.Size > capacity {
		return nil, fmt.Errorf("%w: manifest size %d exceeds %d stored bytes", storage.ErrInvalidURI, m.Size, capacity)
	}
	return s.codec.Join(shards, m.Size)
}
