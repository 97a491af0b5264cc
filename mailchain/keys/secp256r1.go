package keys

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
)

const secp256r1SignatureSize = 64

func secp256r1PublicFromPrivate(raw []byte) ([]byte, error) {
	priv, err := ecdh.P256().NewPrivateKey(raw)
	if err != nil {
		return nil, err
	}
	return compressP256(priv.PublicKey().Bytes()), nil
}

// compressP256 converts an uncompressed SEC1 point (0x04‖x‖y) to its
// compressed form.
func compressP256(uncompressed []byte) []byte {
	out := make([]byte, Secp256r1PublicKeySize)
	out[0] = 0x02 | (uncompressed[64] & 1)
	copy(out[1:], uncompressed[1:33])
	return out
}

func validateSecp256r1Public(raw []byte) error {
	if x, _ := elliptic.UnmarshalCompressed(elliptic.P256(), raw); x == nil {
		return errors.New("not a point on the curve")
	}
	return nil
}

// Secp256r1Key returns the crypto/ecdh view of a P-256 private key.
func (k PrivateKey) Secp256r1Key() (*ecdh.PrivateKey, error) {
	if k.curve != Secp256r1 {
		return nil, ErrUnsupportedCurve
	}
	return ecdh.P256().NewPrivateKey(k.raw)
}

// Secp256r1Key returns the crypto/ecdh view of a P-256 public key.
func (k PublicKey) Secp256r1Key() (*ecdh.PublicKey, error) {
	if k.curve != Secp256r1 {
		return nil, ErrUnsupportedCurve
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), k.raw)
	if x == nil {
		return nil, ErrInvalidKeyMaterial
	}
	uncompressed := make([]byte, 65)
	uncompressed[0] = 0x04
	x.FillBytes(uncompressed[1:33])
	y.FillBytes(uncompressed[33:])
	return ecdh.P256().NewPublicKey(uncompressed)
}

func p256PublicKey(pub []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), pub)
	if x == nil {
		return nil, ErrInvalidKeyMaterial
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

func secp256r1Sign(raw, pub, msg []byte) ([]byte, error) {
	pk, err := p256PublicKey(pub)
	if err != nil {
		return nil, err
	}
	priv := &ecdsa.PrivateKey{PublicKey: *pk, D: new(big.Int).SetBytes(raw)}
	digest := sha256.Sum256(msg)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, err
	}
	sig := make([]byte, secp256r1SignatureSize)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

func secp256r1Verify(pub, msg, sig []byte) bool {
	if len(sig) != secp256r1SignatureSize {
		return false
	}
	pk, err := p256PublicKey(pub)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pk, digest[:], r, s)
}
