package keys

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const secp256k1SignatureSize = 65

func secp256k1Scalar(raw []byte) (*secp256k1.PrivateKey, error) {
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(raw); overflow || s.IsZero() {
		return nil, errors.New("scalar out of range")
	}
	return secp256k1.NewPrivateKey(&s), nil
}

func secp256k1PublicFromPrivate(raw []byte) ([]byte, error) {
	priv, err := secp256k1Scalar(raw)
	if err != nil {
		return nil, err
	}
	return priv.PubKey().SerializeCompressed(), nil
}

func validateSecp256k1Public(raw []byte) error {
	_, err := secp256k1.ParsePubKey(raw)
	return err
}

// Secp256k1Key exposes the parsed private scalar for key agreement.
func (k PrivateKey) Secp256k1Key() (*secp256k1.PrivateKey, error) {
	if k.curve != Secp256k1 {
		return nil, ErrUnsupportedCurve
	}
	return secp256k1Scalar(k.raw)
}

// Secp256k1Key exposes the parsed public point for key agreement.
func (k PublicKey) Secp256k1Key() (*secp256k1.PublicKey, error) {
	if k.curve != Secp256k1 {
		return nil, ErrUnsupportedCurve
	}
	return secp256k1.ParsePubKey(k.raw)
}

// Signatures are compact recoverable signatures over SHA-256(msg).
func secp256k1Sign(raw, msg []byte) ([]byte, error) {
	priv, err := secp256k1Scalar(raw)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(msg)
	return ecdsa.SignCompact(priv, digest[:], true), nil
}

func secp256k1Verify(pub, msg, sig []byte) bool {
	if len(sig) != secp256k1SignatureSize {
		return false
	}
	expected, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	recovered, _, err := ecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return false
	}
	return recovered.IsEqual(expected)
}
