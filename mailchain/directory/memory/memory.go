// Package memory is an in-memory directory.
// It is useful for tests, examples and embedding in applications.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/TheusHen/mailchain/mailchain/directory"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

// Store is an in-memory directory registry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]directory.Entry
}

func New() *Store {
	return &Store{entries: map[string]directory.Entry{}}
}

func (s *Store) Register(ctx context.Context, e directory.Entry) error {
	addr, err := directory.NormalizeAddress(e.Address)
	if err != nil {
		return err
	}
	if e.MessagingKey.IsZero() {
		return fmt.Errorf("directory: %s: missing messaging key", addr)
	}
	e.Address = addr
	e.Attributes = maps.Clone(e.Attributes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr] = e
	return nil
}

func (s *Store) Lookup(ctx context.Context, address string) (directory.Entry, error) {
	addr, err := directory.NormalizeAddress(address)
	if err != nil {
		return directory.Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[addr]
	if !ok {
		return directory.Entry{}, fmt.Errorf("%w: %s", directory.ErrNotFound, addr)
	}
	e.Attributes = maps.Clone(e.Attributes)
	return e, nil
}

func (s *Store) Resolve(ctx context.Context, address string) (keys.PublicKey, error) {
	e, err := s.Lookup(ctx, address)
	if err != nil {
		return keys.PublicKey{}, err
	}
	return e.MessagingKey, nil
}

func (s *Store) List(ctx context.Context) ([]directory.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]directory.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Attributes = maps.Clone(e.Attributes)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}
