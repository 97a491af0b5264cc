package derive

import (
	"fmt"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/gtank/merlin"
	"golang.org/x/crypto/blake2b"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

// SCALE-encoded "Ed25519HDKD": compact length prefix (11<<2) then the bytes.
var ed25519HDKD = append([]byte{11 << 2}, "Ed25519HDKD"...)

// ExtendedPrivateKey is a private key that can derive hardened children.
// Only Ed25519 and Sr25519 keys qualify.
type ExtendedPrivateKey struct {
	key    keys.PrivateKey
	zeroed bool
}

// FromPrivateKey wraps k for derivation.
func FromPrivateKey(k keys.PrivateKey) (*ExtendedPrivateKey, error) {
	switch k.Curve() {
	case keys.Ed25519, keys.Sr25519:
		return &ExtendedPrivateKey{key: k}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotDerivable, k.Curve())
	}
}

// PrivateKey returns the wrapped key. It shares memory with the extended key
// and is wiped by Zero.
func (k *ExtendedPrivateKey) PrivateKey() keys.PrivateKey { return k.key }

// Derive returns the hardened child for seg.
func (k *ExtendedPrivateKey) Derive(seg Segment) (*ExtendedPrivateKey, error) {
	if k.zeroed {
		return nil, ErrKeyZeroed
	}
	cc, err := seg.ChainCode()
	if err != nil {
		return nil, err
	}

	var child []byte
	switch k.key.Curve() {
	case keys.Ed25519:
		child, err = deriveEd25519(k.key, cc)
	case keys.Sr25519:
		child, err = deriveSr25519(k.key, cc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotDerivable, k.key.Curve())
	}
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", seg, err)
	}
	defer wipe(child)

	pk, err := keys.PrivateKeyFromSeed(k.key.Curve(), child)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", seg, err)
	}
	return &ExtendedPrivateKey{key: pk}, nil
}

// DerivePath applies segs in order. Intermediate keys are zeroed.
func (k *ExtendedPrivateKey) DerivePath(segs ...Segment) (*ExtendedPrivateKey, error) {
	if k.zeroed {
		return nil, ErrKeyZeroed
	}
	cur := k
	for _, seg := range segs {
		next, err := cur.Derive(seg)
		if cur != k {
			cur.Zero()
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if cur == k {
		// An empty path yields an independent copy.
		cp, err := keys.NewPrivateKey(k.key.Curve(), k.key.Bytes())
		if err != nil {
			return nil, err
		}
		return &ExtendedPrivateKey{key: cp}, nil
	}
	return cur, nil
}

// Zero wipes the key material. Further derivation fails with ErrKeyZeroed.
func (k *ExtendedPrivateKey) Zero() {
	k.key.Zero()
	k.zeroed = true
}

func deriveEd25519(parent keys.PrivateKey, cc [32]byte) ([]byte, error) {
	seed, err := parent.Ed25519Seed()
	if err != nil {
		return nil, err
	}
	defer wipe(seed)

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	h.Write(ed25519HDKD)
	h.Write(seed)
	h.Write(cc[:])
	return h.Sum(nil), nil
}

// deriveSr25519 follows schnorrkel's hard derivation transcript and keeps the
// resulting mini secret so the child stays a plain 32-byte Sr25519 key.
func deriveSr25519(parent keys.PrivateKey, cc [32]byte) ([]byte, error) {
	mini, err := parent.Sr25519MiniSecret()
	if err != nil {
		return nil, err
	}
	secret := mini.ExpandEd25519().Encode()
	defer wipe(secret[:])

	t := merlin.NewTranscript("SchnorrRistrettoHDKD")
	t.AppendMessage([]byte("sign-bytes"), nil)
	t.AppendMessage([]byte("chain-code"), cc[:])
	t.AppendMessage([]byte("secret-key"), secret[:])
	return t.ExtractBytes([]byte("HDKD-hard"), schnorrkel.MiniSecretKeySize), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
