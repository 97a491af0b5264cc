package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/curve25519"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

// SharedSecretSize is the length of every shared secret returned by SharedSecret.
const SharedSecretSize = 32

// SharedSecret computes the Diffie-Hellman secret between own and peer.
// Both keys must be on the same curve and must not be the same key.
func SharedSecret(own keys.PrivateKey, peer keys.PublicKey) ([]byte, error) {
	if own.IsZero() || peer.IsZero() {
		return nil, fmt.Errorf("%w: missing key", ErrExchange)
	}
	if own.Curve() != peer.Curve() {
		return nil, fmt.Errorf("%w: curve mismatch %s/%s", ErrExchange, own.Curve(), peer.Curve())
	}
	if own.PublicKey().Equal(peer) {
		return nil, fmt.Errorf("%w: peer key equals own key", ErrExchange)
	}

	var (
		shared []byte
		err    error
	)
	switch own.Curve() {
	case keys.Ed25519:
		shared, err = ed25519Exchange(own, peer)
	case keys.Secp256k1:
		shared, err = secp256k1Exchange(own, peer)
	case keys.Secp256r1:
		shared, err = secp256r1Exchange(own, peer)
	case keys.Sr25519:
		return nil, fmt.Errorf("%w: %s has no key agreement", keys.ErrUnsupportedCurve, own.Curve())
	default:
		return nil, fmt.Errorf("%w: %s", keys.ErrUnsupportedCurve, own.Curve())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	var zero [SharedSecretSize]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return nil, fmt.Errorf("%w: degenerate shared secret", ErrExchange)
	}
	return shared, nil
}

// EphemeralKey returns a fresh single-use key for an exchange on curve.
func EphemeralKey(curve keys.Curve, r io.Reader) (keys.PrivateKey, error) {
	switch curve {
	case keys.Ed25519, keys.Secp256k1, keys.Secp256r1:
		return keys.GenerateKey(curve, Reader(r))
	case keys.Sr25519:
		return keys.PrivateKey{}, fmt.Errorf("%w: %s has no key agreement", keys.ErrUnsupportedCurve, curve)
	default:
		return keys.PrivateKey{}, fmt.Errorf("%w: %s", keys.ErrUnsupportedCurve, curve)
	}
}

// Ed25519 keys are mapped to their Curve25519 form and combined with X25519.
func ed25519Exchange(own keys.PrivateKey, peer keys.PublicKey) ([]byte, error) {
	seed, err := own.Ed25519Seed()
	if err != nil {
		return nil, err
	}
	scalar := ed25519ToX25519Private(seed)
	defer wipe(scalar)
	wipe(seed)

	u, err := ed25519ToX25519Public(peer.Bytes())
	if err != nil {
		return nil, err
	}
	// X25519 fails on low-order points.
	return curve25519.X25519(scalar, u)
}

func ed25519ToX25519Private(seed []byte) []byte {
	h := sha512.Sum512(seed)
	defer wipe(h[:])
	out := make([]byte, curve25519.ScalarSize)
	copy(out, h[:32])
	// Clamp per RFC 7748.
	out[0] &= 248
	out[31] &= 127
	out[31] |= 64
	return out
}

func ed25519ToX25519Public(pub []byte) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, err
	}
	return p.BytesMontgomery(), nil
}

// Secp256k1 secrets are SHA-256 of the compressed shared point.
func secp256k1Exchange(own keys.PrivateKey, peer keys.PublicKey) ([]byte, error) {
	priv, err := own.Secp256k1Key()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	pub, err := peer.Secp256k1Key()
	if err != nil {
		return nil, err
	}

	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &result)
	result.ToAffine()
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, fmt.Errorf("point at infinity")
	}
	compressed := secp256k1.NewPublicKey(&result.X, &result.Y).SerializeCompressed()
	sum := sha256.Sum256(compressed)
	return sum[:], nil
}

func secp256r1Exchange(own keys.PrivateKey, peer keys.PublicKey) ([]byte, error) {
	priv, err := own.Secp256r1Key()
	if err != nil {
		return nil, err
	}
	pub, err := peer.Secp256r1Key()
	if err != nil {
		return nil, err
	}
	return priv.ECDH(pub)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
