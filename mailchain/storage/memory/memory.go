// Package memory is an in-memory, content-addressed payload store.
// It is useful for tests, examples and embedding in applications.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/TheusHen/mailchain/mailchain/storage"
)

// Scheme prefixes every URI this store issues.
const Scheme = "mem://"

// Store is an in-memory payload store keyed by content address.
type Store struct {
	mu    sync.RWMutex
	name  string
	blobs map[string][]byte
}

// New returns an empty store. name distinguishes stores in URIs and may be empty.
func New(name string) *Store {
	return &Store{name: name, blobs: map[string][]byte{}}
}

func (s *Store) uri(addr string) string {
	if s.name == "" {
		return Scheme + addr
	}
	return Scheme + s.name + "/" + addr
}

func (s *Store) key(uri string) (string, error) {
	prefix := s.uri("")
	if !strings.HasPrefix(uri, prefix) || len(uri) == len(prefix) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidURI, uri)
	}
	return strings.TrimPrefix(uri, prefix), nil
}

func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	addr := storage.ContentAddress(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[addr]; !ok {
		s.blobs[addr] = bytes.Clone(data)
	}
	return s.uri(addr), nil
}

func (s *Store) Get(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr, err := s.key(uri)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, uri)
	}
	return bytes.Clone(data), nil
}

func (s *Store) Delete(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr, err := s.key(uri)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, addr)
	return nil
}

// Len returns the number of stored payloads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
