package derive

import (
	"fmt"
	"io"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

var (
	labelHeaders = Label("headers")
	labelContent = Label("content")
)

// RootKey is the per-message root encryption key. It is an Ed25519 key so
// every key derived from it can drive secret-key encryption.
type RootKey struct {
	ext *ExtendedPrivateKey
}

// NewRootKey generates a fresh root key from r, or crypto/rand when r is nil.
func NewRootKey(r io.Reader) (*RootKey, error) {
	k, err := keys.GenerateKey(keys.Ed25519, r)
	if err != nil {
		return nil, err
	}
	return &RootKey{ext: &ExtendedPrivateKey{key: k}}, nil
}

// RootKeyFromPrivateKey wraps a recovered root key, as read from an envelope.
func RootKeyFromPrivateKey(k keys.PrivateKey) (*RootKey, error) {
	if k.Curve() != keys.Ed25519 {
		return nil, fmt.Errorf("%w: root key must be %s, got %s", ErrNotDerivable, keys.Ed25519, k.Curve())
	}
	return &RootKey{ext: &ExtendedPrivateKey{key: k}}, nil
}

// WithRootKey generates a root key, passes it to fn and zeroes it when fn
// returns, whatever the outcome.
func WithRootKey(r io.Reader, fn func(*RootKey) error) error {
	root, err := NewRootKey(r)
	if err != nil {
		return err
	}
	defer root.Zero()
	return fn(root)
}

// PrivateKey returns the root key itself. It is wiped by Zero.
func (k *RootKey) PrivateKey() keys.PrivateKey { return k.ext.PrivateKey() }

// HeadersKey returns derive(root, "headers").
func (k *RootKey) HeadersKey() (keys.PrivateKey, error) {
	child, err := k.ext.Derive(labelHeaders)
	if err != nil {
		return keys.PrivateKey{}, err
	}
	return child.PrivateKey(), nil
}

// ContentKey returns derive(root, "content"), the parent of every chunk key.
// Callers own the result and should Zero it.
func (k *RootKey) ContentKey() (*ExtendedPrivateKey, error) {
	return k.ext.Derive(labelContent)
}

// ChunkKey returns derive(derive(root, "content"), i).
func (k *RootKey) ChunkKey(i uint32) (keys.PrivateKey, error) {
	child, err := k.ext.DerivePath(labelContent, Index(i))
	if err != nil {
		return keys.PrivateKey{}, err
	}
	return child.PrivateKey(), nil
}

// Zero wipes the root key.
func (k *RootKey) Zero() { k.ext.Zero() }
