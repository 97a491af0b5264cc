package envelope

import (
	"errors"
	"fmt"
	"io"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/crypto/derive"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

var (
	ErrInvalidBundle          = errors.New("envelope: invalid key bundle")
	ErrUnsupportedKeyExchange = errors.New("envelope: unsupported key exchange method")
	ErrRecipientMismatch      = errors.New("envelope: not addressed to this key")
	ErrMalformedEnvelope      = errors.New("envelope: malformed encoding")
	ErrDecryptionFailed       = errors.New("envelope: decryption failed")
)

// KeyExchangeMethod selects how the recipient recovers the message key.
type KeyExchangeMethod int32

const (
	KeyExchangeUnknown KeyExchangeMethod = 0
	KeyExchangeECDH    KeyExchangeMethod = 1
	KeyExchangeX3DH    KeyExchangeMethod = 2 // reserved
)

func (m KeyExchangeMethod) String() string {
	switch m {
	case KeyExchangeECDH:
		return "ECDH"
	case KeyExchangeX3DH:
		return "X3DH"
	default:
		return "Unknown"
	}
}

// ECDHKeyBundle names the recipient key and carries the sender's ephemeral key.
type ECDHKeyBundle struct {
	PublicMessagingKey keys.PublicKey
	PublicEphemeralKey keys.PublicKey
}

// Envelope is the per-recipient key carrier.
type Envelope struct {
	EncryptedMessageKey []byte
	EncryptedMessageURI []byte
	KeyExchangeMethod   KeyExchangeMethod
	ECDHKeyBundle       *ECDHKeyBundle
}

// Create seals root and uri for recipient. r supplies the ephemeral key and
// nonces; nil selects crypto/rand.
func Create(recipient keys.PublicKey, root *derive.RootKey, uri string, r io.Reader) (*Envelope, error) {
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: missing recipient key", ErrInvalidBundle)
	}
	if uri == "" {
		return nil, fmt.Errorf("%w: missing message uri", ErrInvalidBundle)
	}
	r = crypto.Reader(r)

	eph, err := crypto.EphemeralKey(recipient.Curve(), r)
	if err != nil {
		return nil, err
	}
	defer eph.Zero()

	enc, err := sealer(eph, recipient, r)
	if err != nil {
		return nil, err
	}
	defer enc.Zero()

	rootBytes, err := keys.EncodePrivateKey(root.PrivateKey())
	if err != nil {
		return nil, err
	}
	defer wipe(rootBytes)

	encKey, err := enc.Encrypt(rootBytes)
	if err != nil {
		return nil, err
	}
	encURI, err := enc.Encrypt([]byte(uri))
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		EncryptedMessageKey: encKey,
		EncryptedMessageURI: encURI,
		KeyExchangeMethod:   KeyExchangeECDH,
		ECDHKeyBundle: &ECDHKeyBundle{
			PublicMessagingKey: recipient,
			PublicEphemeralKey: eph.PublicKey(),
		},
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate checks that every required field is present.
func (e *Envelope) Validate() error {
	switch {
	case len(e.EncryptedMessageKey) == 0:
		return fmt.Errorf("%w: missing encrypted message key", ErrInvalidBundle)
	case len(e.EncryptedMessageURI) == 0:
		return fmt.Errorf("%w: missing encrypted message uri", ErrInvalidBundle)
	case e.KeyExchangeMethod == KeyExchangeUnknown:
		return fmt.Errorf("%w: key exchange method not set", ErrInvalidBundle)
	case e.KeyExchangeMethod != KeyExchangeECDH && e.KeyExchangeMethod != KeyExchangeX3DH:
		return fmt.Errorf("%w: key exchange method %d", ErrInvalidBundle, e.KeyExchangeMethod)
	}
	if e.KeyExchangeMethod == KeyExchangeECDH {
		b := e.ECDHKeyBundle
		switch {
		case b == nil:
			return fmt.Errorf("%w: missing ecdh key bundle", ErrInvalidBundle)
		case b.PublicMessagingKey.IsZero():
			return fmt.Errorf("%w: missing public messaging key", ErrInvalidBundle)
		case b.PublicEphemeralKey.IsZero():
			return fmt.Errorf("%w: missing public ephemeral key", ErrInvalidBundle)
		case b.PublicMessagingKey.Curve() != b.PublicEphemeralKey.Curve():
			return fmt.Errorf("%w: ephemeral key on %s, messaging key on %s",
				ErrInvalidBundle, b.PublicEphemeralKey.Curve(), b.PublicMessagingKey.Curve())
		}
	}
	return nil
}

// Open recovers the root key and message URI with the recipient's private
// messaging key. The caller owns the returned root key and should Zero it.
func Open(e *Envelope, priv keys.PrivateKey) (*derive.RootKey, string, error) {
	if err := e.Validate(); err != nil {
		return nil, "", err
	}
	if e.KeyExchangeMethod != KeyExchangeECDH {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedKeyExchange, e.KeyExchangeMethod)
	}
	if !e.ECDHKeyBundle.PublicMessagingKey.Equal(priv.PublicKey()) {
		return nil, "", ErrRecipientMismatch
	}

	dec, err := sealer(priv, e.ECDHKeyBundle.PublicEphemeralKey, nil)
	if err != nil {
		return nil, "", err
	}
	defer dec.Zero()

	rootBytes, err := dec.Decrypt(e.EncryptedMessageKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: message key: %v", ErrDecryptionFailed, err)
	}
	defer wipe(rootBytes)
	rootKey, err := keys.DecodePrivateKey(rootBytes)
	if err != nil {
		return nil, "", fmt.Errorf("%w: message key: %v", ErrDecryptionFailed, err)
	}
	root, err := derive.RootKeyFromPrivateKey(rootKey)
	if err != nil {
		rootKey.Zero()
		return nil, "", err
	}

	uri, err := dec.Decrypt(e.EncryptedMessageURI)
	if err != nil {
		root.Zero()
		return nil, "", fmt.Errorf("%w: message uri: %v", ErrDecryptionFailed, err)
	}
	return root, string(uri), nil
}

// sealer returns the encrypter keyed by the shared secret between own and
// peer, read as an Ed25519 seed.
func sealer(own keys.PrivateKey, peer keys.PublicKey, r io.Reader) (*crypto.KeyEncrypter, error) {
	shared, err := crypto.SharedSecret(own, peer)
	if err != nil {
		return nil, err
	}
	defer wipe(shared)

	symmetric, err := keys.PrivateKeyFromSeed(keys.Ed25519, shared)
	if err != nil {
		return nil, err
	}
	defer symmetric.Zero()
	return crypto.NewKeyEncrypter(symmetric, crypto.NaClSecretKey{Rand: r})
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
