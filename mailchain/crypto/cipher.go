package crypto

import (
	"fmt"
	"io"
)

// Content encryption identifiers carried in payload headers.
const (
	CipherNaClSecretKey     = "nacl-secret-key"
	CipherXChaCha20Poly1305 = "xchacha20-poly1305"
)

// MaxSealOverhead bounds the bytes any Cipher adds: a 24-byte nonce and a
// 16-byte tag.
const MaxSealOverhead = 24 + 16

// Cipher is a secret-key authenticated encryption scheme. Seal output always
// starts with the nonce it used; Open is its exact inverse.
type Cipher interface {
	Name() string
	Seal(key, plaintext []byte) ([]byte, error)
	Open(key, ciphertext []byte) ([]byte, error)
}

// NaClSecretKey is the default content cipher.
type NaClSecretKey struct {
	Rand io.Reader
}

func (NaClSecretKey) Name() string { return CipherNaClSecretKey }

func (c NaClSecretKey) Seal(key, plaintext []byte) ([]byte, error) {
	return SecretKeyEncrypt(key, plaintext, c.Rand)
}

func (NaClSecretKey) Open(key, ciphertext []byte) ([]byte, error) {
	return SecretKeyDecrypt(key, ciphertext)
}

// XChaCha20Poly1305 is the alternative content cipher.
type XChaCha20Poly1305 struct {
	Rand io.Reader
}

func (XChaCha20Poly1305) Name() string { return CipherXChaCha20Poly1305 }

func (c XChaCha20Poly1305) Seal(key, plaintext []byte) ([]byte, error) {
	a, err := NewAEAD(key, c.Rand)
	if err != nil {
		return nil, err
	}
	return a.Seal(plaintext, nil), nil
}

func (c XChaCha20Poly1305) Open(key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyInput
	}
	a, err := NewAEAD(key, c.Rand)
	if err != nil {
		return nil, err
	}
	return a.Open(ciphertext, nil)
}

// CipherByName returns the cipher registered under a content-encryption tag.
func CipherByName(name string, r io.Reader) (Cipher, error) {
	switch name {
	case CipherNaClSecretKey:
		return NaClSecretKey{Rand: r}, nil
	case CipherXChaCha20Poly1305:
		return XChaCha20Poly1305{Rand: r}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, name)
	}
}
