package crypto

import "errors"

var (
	ErrExchange           = errors.New("crypto: key exchange failed")
	ErrEmptyInput         = errors.New("crypto: empty ciphertext")
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")
	ErrDecryptionFailed   = errors.New("crypto: decryption failed")
	ErrInvalidKeySize     = errors.New("crypto: invalid key size")
	ErrUnknownCipher      = errors.New("crypto: unknown cipher")
)
