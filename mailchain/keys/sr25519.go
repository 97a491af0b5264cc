package keys

import (
	schnorrkel "github.com/ChainSafe/go-schnorrkel"
)

const sr25519SignatureSize = 64

// sr25519SigningContext matches the substrate signing context so signatures
// verify in substrate-based tooling.
var sr25519SigningContext = []byte("substrate")

// Sr25519MiniSecret returns the schnorrkel mini secret backing an Sr25519 key.
func (k PrivateKey) Sr25519MiniSecret() (*schnorrkel.MiniSecretKey, error) {
	if k.curve != Sr25519 {
		return nil, ErrUnsupportedCurve
	}
	return sr25519Mini(k.raw)
}

func sr25519Mini(raw []byte) (*schnorrkel.MiniSecretKey, error) {
	var seed [32]byte
	copy(seed[:], raw)
	return schnorrkel.NewMiniSecretKeyFromRaw(seed)
}

func sr25519PublicFromPrivate(raw []byte) ([]byte, error) {
	mini, err := sr25519Mini(raw)
	if err != nil {
		return nil, err
	}
	pub, err := mini.ExpandEd25519().Public()
	if err != nil {
		return nil, err
	}
	enc := pub.Encode()
	return enc[:], nil
}

func sr25519Public(raw []byte) (*schnorrkel.PublicKey, error) {
	var b [32]byte
	copy(b[:], raw)
	return schnorrkel.NewPublicKey(b)
}

func validateSr25519Public(raw []byte) error {
	_, err := sr25519Public(raw)
	return err
}

func sr25519Sign(raw, msg []byte) ([]byte, error) {
	mini, err := sr25519Mini(raw)
	if err != nil {
		return nil, err
	}
	sig, err := mini.ExpandEd25519().Sign(schnorrkel.NewSigningContext(sr25519SigningContext, msg))
	if err != nil {
		return nil, err
	}
	enc := sig.Encode()
	return enc[:], nil
}

func sr25519Verify(pub, msg, sig []byte) bool {
	if len(sig) != sr25519SignatureSize {
		return false
	}
	pk, err := sr25519Public(pub)
	if err != nil {
		return false
	}
	var b [64]byte
	copy(b[:], sig)
	s := new(schnorrkel.Signature)
	if err := s.Decode(b); err != nil {
		return false
	}
	ok, err := pk.Verify(s, schnorrkel.NewSigningContext(sr25519SigningContext, msg))
	return err == nil && ok
}
