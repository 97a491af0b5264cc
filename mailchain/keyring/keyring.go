// Package keyring derives messaging keys from a single account secret.
//
// An account key comes from a BIP-39 mnemonic or an existing private key.
// Messaging keys hang off it on the hardened path
//
//	protocol/<protocol>/messaging/<address>/<nonce>
//
// so one mnemonic recovers every messaging key a user ever registered, and
// bumping the nonce rotates a key without touching the account.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"

	"github.com/TheusHen/mailchain/mailchain/crypto/derive"
	"github.com/TheusHen/mailchain/mailchain/directory"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

var (
	ErrInvalidMnemonic = errors.New("keyring: invalid mnemonic")
	ErrClosed          = errors.New("keyring: closed")
)

// MnemonicBits is the entropy of generated mnemonics (24 words).
const MnemonicBits = 256

// NewMnemonic returns a fresh 24-word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// Keyring holds an account key and derives messaging keys from it.
type Keyring struct {
	mu      sync.RWMutex
	account *derive.ExtendedPrivateKey
}

// FromMnemonic builds a keyring on curve (Ed25519 or Sr25519) from the
// first 32 bytes of the BIP-39 seed.
func FromMnemonic(mnemonic, passphrase string, curve keys.Curve) (*Keyring, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer wipe(seed)
	k, err := keys.PrivateKeyFromSeed(curve, seed[:keys.SeedSize])
	if err != nil {
		return nil, err
	}
	return FromPrivateKey(k)
}

// FromPrivateKey builds a keyring around an existing account key.
func FromPrivateKey(k keys.PrivateKey) (*Keyring, error) {
	ext, err := derive.FromPrivateKey(k)
	if err != nil {
		return nil, err
	}
	return &Keyring{account: ext}, nil
}

// MessagingPath returns the derivation path of a messaging key.
func MessagingPath(protocol, address string, nonce uint32) []derive.Segment {
	return []derive.Segment{
		derive.Label("protocol"),
		derive.Label(protocol),
		derive.Label("messaging"),
		derive.Label(address),
		derive.Index(nonce),
	}
}

// AccountKey returns the public account key.
func (k *Keyring) AccountKey() (keys.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.account == nil {
		return keys.PublicKey{}, ErrClosed
	}
	return k.account.PrivateKey().PublicKey(), nil
}

// MessagingKey derives the messaging key for address on protocol. The
// address is normalized first so case differences map to the same key.
func (k *Keyring) MessagingKey(protocol, address string, nonce uint32) (keys.PrivateKey, error) {
	addr, err := directory.NormalizeAddress(address)
	if err != nil {
		return keys.PrivateKey{}, err
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.account == nil {
		return keys.PrivateKey{}, ErrClosed
	}
	child, err := k.account.DerivePath(MessagingPath(protocol, addr, nonce)...)
	if err != nil {
		return keys.PrivateKey{}, err
	}
	return child.PrivateKey(), nil
}

// Register derives the messaging key for address and publishes its public
// half to registry.
func (k *Keyring) Register(ctx context.Context, registry directory.Registry, protocol, address string, nonce uint32) (keys.PrivateKey, error) {
	priv, err := k.MessagingKey(protocol, address, nonce)
	if err != nil {
		return keys.PrivateKey{}, err
	}
	err = registry.Register(ctx, directory.Entry{
		Address:      address,
		Protocol:     protocol,
		MessagingKey: priv.PublicKey(),
		Attributes:   map[string]string{"fingerprint": Fingerprint(priv.PublicKey())},
	})
	if err != nil {
		priv.Zero()
		return keys.PrivateKey{}, err
	}
	return priv, nil
}

// Close wipes the account key.
func (k *Keyring) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.account != nil {
		k.account.Zero()
		k.account = nil
	}
}

// Fingerprint is a short base58 handle for a public key, for display.
func Fingerprint(pub keys.PublicKey) string {
	id := pub.ID()
	return base58.Encode(id[:10])
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
