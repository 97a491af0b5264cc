package keys

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// EncodePublicKey returns [tag][raw] so the key self-describes on the wire.
func EncodePublicKey(k PublicKey) ([]byte, error) {
	tag, err := k.curve.Tag()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+len(k.raw))
	out[0] = tag
	copy(out[1:], k.raw)
	return out, nil
}

// DecodePublicKey is the inverse of EncodePublicKey.
func DecodePublicKey(b []byte) (PublicKey, error) {
	if len(b) < 1 {
		return PublicKey{}, ErrUnderflow
	}
	curve, err := CurveFromTag(b[0])
	if err != nil {
		return PublicKey{}, err
	}
	if len(b)-1 < curve.publicKeySize() {
		return PublicKey{}, fmt.Errorf("%w: %s public key needs %d bytes, got %d",
			ErrUnderflow, curve, curve.publicKeySize(), len(b)-1)
	}
	return NewPublicKey(curve, b[1:])
}

// EncodePrivateKey returns [tag][raw]. The result holds secret material.
func EncodePrivateKey(k PrivateKey) ([]byte, error) {
	tag, err := k.curve.Tag()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1+len(k.raw))
	out[0] = tag
	copy(out[1:], k.raw)
	return out, nil
}

// DecodePrivateKey is the inverse of EncodePrivateKey.
func DecodePrivateKey(b []byte) (PrivateKey, error) {
	if len(b) < 1 {
		return PrivateKey{}, ErrUnderflow
	}
	curve, err := CurveFromTag(b[0])
	if err != nil {
		return PrivateKey{}, err
	}
	if len(b)-1 < curve.privateKeySize() {
		return PrivateKey{}, fmt.Errorf("%w: %s private key needs %d bytes, got %d",
			ErrUnderflow, curve, curve.privateKeySize(), len(b)-1)
	}
	return NewPrivateKey(curve, b[1:])
}

// MustEncodePublicKey encodes a key already known to be valid.
func MustEncodePublicKey(k PublicKey) []byte {
	b, err := EncodePublicKey(k)
	if err != nil {
		panic(err)
	}
	return b
}

// Base58 returns the base58 form of the encoded public key.
func (k PublicKey) Base58() string {
	b, err := EncodePublicKey(k)
	if err != nil {
		return ""
	}
	return base58.Encode(b)
}

// ParseBase58PublicKey parses the output of PublicKey.Base58.
func ParseBase58PublicKey(s string) (PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return DecodePublicKey(b)
}
