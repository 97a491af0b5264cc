package crypto

import (
	"fmt"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

// KeyEncrypter seals data under the symmetric key carried by an Ed25519
// private key: its 32-byte seed. Header, chunk and envelope keys all go
// through this type.
type KeyEncrypter struct {
	key    []byte
	cipher Cipher
}

// NewKeyEncrypter builds an encrypter for k. A nil cipher selects NaCl secretbox.
func NewKeyEncrypter(k keys.PrivateKey, c Cipher) (*KeyEncrypter, error) {
	if k.Curve() != keys.Ed25519 {
		return nil, fmt.Errorf("%w: %s keys cannot encrypt", keys.ErrUnsupportedCurve, k.Curve())
	}
	seed, err := k.Ed25519Seed()
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = NaClSecretKey{}
	}
	return &KeyEncrypter{key: seed, cipher: c}, nil
}

func (e *KeyEncrypter) Encrypt(plaintext []byte) ([]byte, error) {
	return e.cipher.Seal(e.key, plaintext)
}

func (e *KeyEncrypter) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyInput
	}
	return e.cipher.Open(e.key, ciphertext)
}

// Zero wipes the symmetric key.
func (e *KeyEncrypter) Zero() { wipe(e.key) }
