package keys

import (
	"bytes"
	"crypto/ed25519"
	"errors"

	"filippo.io/edwards25519"
)

func ed25519RawFromSeed(seed []byte) []byte {
	return []byte(ed25519.NewKeyFromSeed(seed))
}

func ed25519PublicFromPrivate(raw []byte) ([]byte, error) {
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	pub := bytes.Clone(derived[ed25519.SeedSize:])
	if !bytes.Equal(pub, raw[ed25519.SeedSize:]) {
		return nil, errors.New("public half does not match seed")
	}
	return pub, nil
}

func validateEd25519Public(raw []byte) error {
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return errors.New("not a point on the curve")
	}
	return nil
}

func ed25519Sign(raw, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(raw), msg)
}

func ed25519Verify(pub, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}

// Ed25519Seed returns the 32-byte seed of an Ed25519 private key.
func (k PrivateKey) Ed25519Seed() ([]byte, error) {
	if k.curve != Ed25519 {
		return nil, ErrUnsupportedCurve
	}
	return bytes.Clone(k.raw[:ed25519.SeedSize]), nil
}
