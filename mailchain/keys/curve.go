package keys

import "fmt"

// Curve identifies the curve family of a key. The set is closed: every
// operation switches over all four values.
type Curve uint8

const (
	Ed25519 Curve = iota + 1
	Secp256k1
	Secp256r1
	Sr25519
)

// Encoding tags prefixed to raw key bytes. Tags are never reassigned.
const (
	TagSecp256k1 byte = 0xe1
	TagEd25519   byte = 0xe2
	TagSr25519   byte = 0xe3
	TagSecp256r1 byte = 0xe4
)

// Raw key lengths.
const (
	Ed25519PublicKeySize    = 32
	Ed25519PrivateKeySize   = 64
	Secp256k1PublicKeySize  = 33
	Secp256k1PrivateKeySize = 32
	Secp256r1PublicKeySize  = 33
	Secp256r1PrivateKeySize = 32
	Sr25519PublicKeySize    = 32
	Sr25519PrivateKeySize   = 32

	// SeedSize is the seed length accepted by PrivateKeyFromSeed for every curve.
	SeedSize = 32
)

func (c Curve) String() string {
	switch c {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	case Secp256r1:
		return "secp256r1"
	case Sr25519:
		return "sr25519"
	default:
		return fmt.Sprintf("curve(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the supported curves.
func (c Curve) Valid() bool {
	switch c {
	case Ed25519, Secp256k1, Secp256r1, Sr25519:
		return true
	default:
		return false
	}
}

// Tag returns the stable encoding tag of the curve.
func (c Curve) Tag() (byte, error) {
	switch c {
	case Ed25519:
		return TagEd25519, nil
	case Secp256k1:
		return TagSecp256k1, nil
	case Secp256r1:
		return TagSecp256r1, nil
	case Sr25519:
		return TagSr25519, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCurve, c)
	}
}

// CurveFromTag maps an encoding tag back to its curve.
func CurveFromTag(tag byte) (Curve, error) {
	switch tag {
	case TagEd25519:
		return Ed25519, nil
	case TagSecp256k1:
		return Secp256k1, nil
	case TagSecp256r1:
		return Secp256r1, nil
	case TagSr25519:
		return Sr25519, nil
	default:
		return 0, fmt.Errorf("%w: tag 0x%02x", ErrUnsupportedCurve, tag)
	}
}

func (c Curve) publicKeySize() int {
	switch c {
	case Ed25519:
		return Ed25519PublicKeySize
	case Secp256k1:
		return Secp256k1PublicKeySize
	case Secp256r1:
		return Secp256r1PublicKeySize
	case Sr25519:
		return Sr25519PublicKeySize
	default:
		return 0
	}
}

func (c Curve) privateKeySize() int {
	switch c {
	case Ed25519:
		return Ed25519PrivateKeySize
	case Secp256k1:
		return Secp256k1PrivateKeySize
	case Secp256r1:
		return Secp256r1PrivateKeySize
	case Sr25519:
		return Sr25519PrivateKeySize
	default:
		return 0
	}
}
