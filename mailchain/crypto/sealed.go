package crypto

import (
	"fmt"
	"io"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

const publicKeyEncryptionInfo = "mailchain/public-key-encryption/v1"

// PublicKeyEncrypt encrypts plaintext so that only the holder of recipient's
// private key can read it. A fresh ephemeral key is generated per call; the
// one-time symmetric key is HKDF-SHA256 over the shared secret, salted with
// the encoded ephemeral public key.
func PublicKeyEncrypt(recipient keys.PublicKey, plaintext []byte, r io.Reader) (keys.PublicKey, []byte, error) {
	r = Reader(r)
	eph, err := EphemeralKey(recipient.Curve(), r)
	if err != nil {
		return keys.PublicKey{}, nil, err
	}
	defer eph.Zero()

	key, err := publicKeyMessageKey(eph, recipient, eph.PublicKey())
	if err != nil {
		return keys.PublicKey{}, nil, err
	}
	defer wipe(key)

	ct, err := SecretKeyEncrypt(key, plaintext, r)
	if err != nil {
		return keys.PublicKey{}, nil, err
	}
	return eph.PublicKey(), ct, nil
}

// PublicKeyDecrypt reverses PublicKeyEncrypt.
func PublicKeyDecrypt(recipient keys.PrivateKey, ephemeral keys.PublicKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyInput
	}
	key, err := publicKeyMessageKey(recipient, ephemeral, ephemeral)
	if err != nil {
		return nil, err
	}
	defer wipe(key)
	return SecretKeyDecrypt(key, ciphertext)
}

func publicKeyMessageKey(own keys.PrivateKey, peer, ephemeral keys.PublicKey) ([]byte, error) {
	shared, err := SharedSecret(own, peer)
	if err != nil {
		return nil, err
	}
	defer wipe(shared)
	salt, err := keys.EncodePublicKey(ephemeral)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	return DeriveKey(shared, salt, []byte(publicKeyEncryptionInfo), SecretKeySize)
}
