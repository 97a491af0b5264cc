package crypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// SecretKeySize is the symmetric key length for every cipher in this package.
	SecretKeySize = 32
	// SecretBoxNonceSize is the random nonce prepended by SecretKeyEncrypt.
	SecretBoxNonceSize = 24
)

// SecretKeyEncrypt seals plaintext with NaCl secretbox (XSalsa20-Poly1305)
// under a fresh random nonce. Returns: nonce (24 bytes) || sealed box.
func SecretKeyEncrypt(key, plaintext []byte, r io.Reader) ([]byte, error) {
	k, err := secretKey(key)
	if err != nil {
		return nil, err
	}
	var nonce [SecretBoxNonceSize]byte
	if _, err := io.ReadFull(Reader(r), nonce[:]); err != nil {
		return nil, err
	}
	out := make([]byte, SecretBoxNonceSize, SecretBoxNonceSize+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plaintext, &nonce, k), nil
}

// SecretKeyDecrypt is the exact inverse of SecretKeyEncrypt.
func SecretKeyDecrypt(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyInput
	}
	k, err := secretKey(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < SecretBoxNonceSize+secretbox.Overhead {
		return nil, ErrCiphertextTooShort
	}
	var nonce [SecretBoxNonceSize]byte
	copy(nonce[:], ciphertext[:SecretBoxNonceSize])
	plaintext, ok := secretbox.Open(nil, ciphertext[SecretBoxNonceSize:], &nonce, k)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func secretKey(key []byte) (*[SecretKeySize]byte, error) {
	if len(key) != SecretKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), SecretKeySize)
	}
	var k [SecretKeySize]byte
	copy(k[:], key)
	return &k, nil
}
