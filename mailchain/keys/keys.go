package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
)

// PublicKey is a curve-tagged public key. The zero value is not a valid key.
type PublicKey struct {
	curve Curve
	raw   []byte
}

// PrivateKey is a curve-tagged private key together with its public key.
type PrivateKey struct {
	curve Curve
	raw   []byte
	pub   PublicKey
}

// NewPublicKey validates raw against the curve and returns the key.
func NewPublicKey(curve Curve, raw []byte) (PublicKey, error) {
	if !curve.Valid() {
		return PublicKey{}, fmt.Errorf("%w: %s", ErrInvalidKeyMaterial, curve)
	}
	if len(raw) != curve.publicKeySize() {
		return PublicKey{}, fmt.Errorf("%w: %s public key is %d bytes, want %d",
			ErrInvalidKeyMaterial, curve, len(raw), curve.publicKeySize())
	}

	var err error
	switch curve {
	case Ed25519:
		err = validateEd25519Public(raw)
	case Secp256k1:
		err = validateSecp256k1Public(raw)
	case Secp256r1:
		err = validateSecp256r1Public(raw)
	case Sr25519:
		err = validateSr25519Public(raw)
	}
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %s: %v", ErrInvalidKeyMaterial, curve, err)
	}
	return PublicKey{curve: curve, raw: bytes.Clone(raw)}, nil
}

// NewPrivateKey validates raw against the curve and derives the public key.
func NewPrivateKey(curve Curve, raw []byte) (PrivateKey, error) {
	if !curve.Valid() {
		return PrivateKey{}, fmt.Errorf("%w: %s", ErrInvalidKeyMaterial, curve)
	}
	if len(raw) != curve.privateKeySize() {
		return PrivateKey{}, fmt.Errorf("%w: %s private key is %d bytes, want %d",
			ErrInvalidKeyMaterial, curve, len(raw), curve.privateKeySize())
	}

	var (
		pub []byte
		err error
	)
	switch curve {
	case Ed25519:
		pub, err = ed25519PublicFromPrivate(raw)
	case Secp256k1:
		pub, err = secp256k1PublicFromPrivate(raw)
	case Secp256r1:
		pub, err = secp256r1PublicFromPrivate(raw)
	case Sr25519:
		pub, err = sr25519PublicFromPrivate(raw)
	}
	if err != nil {
		return PrivateKey{}, fmt.Errorf("%w: %s: %v", ErrInvalidKeyMaterial, curve, err)
	}
	return PrivateKey{
		curve: curve,
		raw:   bytes.Clone(raw),
		pub:   PublicKey{curve: curve, raw: pub},
	}, nil
}

// PrivateKeyFromSeed builds a private key from a 32-byte seed.
// For Ed25519 the seed is expanded to seed‖public; for the other curves the
// seed is the raw secret itself.
func PrivateKeyFromSeed(curve Curve, seed []byte) (PrivateKey, error) {
	if len(seed) != SeedSize {
		return PrivateKey{}, fmt.Errorf("%w: seed is %d bytes, want %d", ErrInvalidKeyMaterial, len(seed), SeedSize)
	}
	switch curve {
	case Ed25519:
		raw := ed25519RawFromSeed(seed)
		defer zero(raw)
		return NewPrivateKey(Ed25519, raw)
	case Secp256k1, Secp256r1, Sr25519:
		return NewPrivateKey(curve, seed)
	default:
		return PrivateKey{}, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve)
	}
}

// GenerateKey creates a new private key on curve using r, or crypto/rand when r is nil.
func GenerateKey(curve Curve, r io.Reader) (PrivateKey, error) {
	if r == nil {
		r = rand.Reader
	}
	if !curve.Valid() {
		return PrivateKey{}, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve)
	}
	seed := make([]byte, SeedSize)
	defer zero(seed)
	// Scalars outside the group order are rejected; retry with fresh bytes.
	for attempt := 0; attempt < 8; attempt++ {
		if _, err := io.ReadFull(r, seed); err != nil {
			return PrivateKey{}, err
		}
		k, err := PrivateKeyFromSeed(curve, seed)
		if err == nil {
			return k, nil
		}
	}
	return PrivateKey{}, fmt.Errorf("%w: could not generate %s key", ErrInvalidKeyMaterial, curve)
}

func (k PublicKey) Curve() Curve { return k.curve }

// Bytes returns a copy of the raw key bytes.
func (k PublicKey) Bytes() []byte { return bytes.Clone(k.raw) }

// IsZero reports whether k is the zero value.
func (k PublicKey) IsZero() bool { return k.curve == 0 && len(k.raw) == 0 }

func (k PublicKey) Equal(other PublicKey) bool {
	return k.curve == other.curve && bytes.Equal(k.raw, other.raw)
}

// Verify reports whether sig is a valid signature of msg under k.
func (k PublicKey) Verify(msg, sig []byte) bool {
	switch k.curve {
	case Ed25519:
		return ed25519Verify(k.raw, msg, sig)
	case Secp256k1:
		return secp256k1Verify(k.raw, msg, sig)
	case Secp256r1:
		return secp256r1Verify(k.raw, msg, sig)
	case Sr25519:
		return sr25519Verify(k.raw, msg, sig)
	default:
		return false
	}
}

func (k PublicKey) String() string {
	if k.IsZero() {
		return "<nil>"
	}
	return k.curve.String() + ":" + k.Base58()
}

func (k PrivateKey) Curve() Curve { return k.curve }

// Bytes returns a copy of the raw private key bytes.
func (k PrivateKey) Bytes() []byte { return bytes.Clone(k.raw) }

func (k PrivateKey) PublicKey() PublicKey { return k.pub }

func (k PrivateKey) IsZero() bool { return k.curve == 0 && len(k.raw) == 0 }

func (k PrivateKey) Equal(other PrivateKey) bool {
	return k.curve == other.curve && subtle.ConstantTimeCompare(k.raw, other.raw) == 1
}

// Sign signs msg. Ed25519 and Secp256k1 signatures are deterministic;
// Secp256r1 and Sr25519 signatures are randomized and must be checked with Verify.
func (k PrivateKey) Sign(msg []byte) ([]byte, error) {
	switch k.curve {
	case Ed25519:
		return ed25519Sign(k.raw, msg), nil
	case Secp256k1:
		return secp256k1Sign(k.raw, msg)
	case Secp256r1:
		return secp256r1Sign(k.raw, k.pub.raw, msg)
	case Sr25519:
		return sr25519Sign(k.raw, msg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, k.curve)
	}
}

// Zero overwrites the private key bytes. Copies made with Bytes are not affected.
func (k PrivateKey) Zero() {
	zero(k.raw)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
