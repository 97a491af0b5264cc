package crypto

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
)

// AEAD wraps XChaCha20-Poly1305 with automatic nonce management.
// The 192-bit nonce is a 128-bit random prefix followed by a 64-bit counter,
// so one instance never repeats a nonce.
type AEAD struct {
	aead   cipher.AEAD
	prefix [16]byte
	seq    atomic.Uint64
}

// NewAEAD creates a new AEAD cipher from a 32-byte key. r supplies the nonce
// prefix; nil selects crypto/rand.
func NewAEAD(key []byte, r io.Reader) (*AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	a := &AEAD{aead: aead}
	if _, err := io.ReadFull(Reader(r), a.prefix[:]); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *AEAD) nextNonce() []byte {
	seq := a.seq.Add(1)
	nonce := make([]byte, chacha20poly1305.NonceSizeX) // 24 bytes
	copy(nonce[:16], a.prefix[:])
	binary.BigEndian.PutUint64(nonce[16:], seq)
	return nonce
}

// Seal encrypts and authenticates plaintext.
// Returns: nonce (24 bytes) || ciphertext || tag (16 bytes)
func (a *AEAD) Seal(plaintext, additionalData []byte) []byte {
	nonce := a.nextNonce()
	out := make([]byte, len(nonce), len(nonce)+len(plaintext)+a.aead.Overhead())
	copy(out, nonce)
	return a.aead.Seal(out, nonce, plaintext, additionalData)
}

// Open decrypts and verifies ciphertext.
// Input format: nonce (24 bytes) || ciphertext || tag (16 bytes)
func (a *AEAD) Open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrEmptyInput
	}
	nonceSize := chacha20poly1305.NonceSizeX
	if len(ciphertext) < nonceSize+a.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := a.aead.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Overhead returns the authentication tag overhead.
func (a *AEAD) Overhead() int { return a.aead.Overhead() }

// NonceSize returns the nonce size.
func (a *AEAD) NonceSize() int { return chacha20poly1305.NonceSizeX }
