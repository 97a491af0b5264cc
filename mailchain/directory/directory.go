// Package directory resolves recipient addresses to public messaging keys.
package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

var (
	ErrNotFound       = errors.New("directory: address not found")
	ErrInvalidAddress = errors.New("directory: invalid address")
)

// Entry binds an address to the messaging key that receives its mail.
// The application decides what Attributes mean.
type Entry struct {
	Address      string
	Protocol     string
	MessagingKey keys.PublicKey
	Attributes   map[string]string
}

// Resolver looks up the messaging key for an address.
// Implementations can be backed by name services, on-chain registries, etc.
type Resolver interface {
	Resolve(ctx context.Context, address string) (keys.PublicKey, error)
}

// Registry is a Resolver that also accepts registrations.
type Registry interface {
	Resolver
	Register(ctx context.Context, e Entry) error
	Lookup(ctx context.Context, address string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
}

// NormalizeAddress trims and lower-cases an address.
func NormalizeAddress(address string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(address))
	if a == "" || strings.ContainsAny(a, " \t\r\n") {
		return "", ErrInvalidAddress
	}
	return a, nil
}
