package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ID is the stable identifier of a public key: SHA-256 of its encoded form.
// It is used as the recipient reference on delivery requests.
type ID [32]byte

func IDFromPublicKey(k PublicKey) ID {
	enc, err := EncodePublicKey(k)
	if err != nil {
		return ID{}
	}
	return ID(sha256.Sum256(enc))
}

func ParseIDHex(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, err
	}
	if len(b) != len(ID{}) {
		return ID{}, errors.New("keys: invalid ID length")
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ID returns the identifier of the key.
func (k PublicKey) ID() ID { return IDFromPublicKey(k) }
