// Package storage abstracts where encrypted payloads are kept. A Store hands
// back a location URI on Put; that URI is what envelopes carry to recipients.
// Stores only ever see opaque serialized payload bytes.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrNotFound   = errors.New("storage: payload not found")
	ErrInvalidURI = errors.New("storage: invalid uri")
	ErrCorrupt    = errors.New("storage: payload corrupt")
)

// Store persists serialized payloads.
type Store interface {
	Put(ctx context.Context, data []byte) (uri string, err error)
	Get(ctx context.Context, uri string) ([]byte, error)
}

// Deleter is implemented by stores that support removal.
type Deleter interface {
	Delete(ctx context.Context, uri string) error
}

// ContentAddress returns the hex SHA-256 of data.
func ContentAddress(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
