package envelope

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

// Protobuf field numbers.
const (
	fieldEncryptedMessageKey protowire.Number = 1
	fieldEncryptedMessageURI protowire.Number = 2
	fieldKeyExchangeMethod   protowire.Number = 3
	fieldECDHKeyBundle       protowire.Number = 4

	fieldPublicMessagingKey protowire.Number = 1
	fieldPublicEphemeralKey protowire.Number = 2
)

// Marshal encodes e in protobuf wire format. Keys are written in their
// tagged encoding. Invalid envelopes are never emitted.
func (e *Envelope) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	var b []byte
	b = protowire.AppendTag(b, fieldEncryptedMessageKey, protowire.BytesType)
	b = protowire.AppendBytes(b, e.EncryptedMessageKey)
	b = protowire.AppendTag(b, fieldEncryptedMessageURI, protowire.BytesType)
	b = protowire.AppendBytes(b, e.EncryptedMessageURI)
	b = protowire.AppendTag(b, fieldKeyExchangeMethod, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.KeyExchangeMethod))

	if e.ECDHKeyBundle != nil {
		bundle, err := e.ECDHKeyBundle.marshal()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldECDHKeyBundle, protowire.BytesType)
		b = protowire.AppendBytes(b, bundle)
	}
	return b, nil
}

func (k *ECDHKeyBundle) marshal() ([]byte, error) {
	messaging, err := keys.EncodePublicKey(k.PublicMessagingKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	ephemeral, err := keys.EncodePublicKey(k.PublicEphemeralKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	var b []byte
	b = protowire.AppendTag(b, fieldPublicMessagingKey, protowire.BytesType)
	b = protowire.AppendBytes(b, messaging)
	b = protowire.AppendTag(b, fieldPublicEphemeralKey, protowire.BytesType)
	b = protowire.AppendBytes(b, ephemeral)
	return b, nil
}

// Unmarshal decodes and validates an envelope. Unknown fields are skipped.
func Unmarshal(b []byte) (*Envelope, error) {
	e := &Envelope{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldEncryptedMessageKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			e.EncryptedMessageKey = append([]byte(nil), v...)
			return n, nil
		case num == fieldEncryptedMessageURI && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			e.EncryptedMessageURI = append([]byte(nil), v...)
			return n, nil
		case num == fieldKeyExchangeMethod && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && v > math.MaxInt32 {
				return 0, fmt.Errorf("%w: key exchange method %d out of range", ErrMalformedEnvelope, v)
			}
			e.KeyExchangeMethod = KeyExchangeMethod(v)
			return n, nil
		case num == fieldECDHKeyBundle && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			bundle, err := unmarshalBundle(v)
			if err != nil {
				return 0, err
			}
			e.ECDHKeyBundle = bundle
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func unmarshalBundle(b []byte) (*ECDHKeyBundle, error) {
	k := &ECDHKeyBundle{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType || (num != fieldPublicMessagingKey && num != fieldPublicEphemeralKey) {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		pub, err := keys.DecodePublicKey(v)
		if err != nil {
			return 0, fmt.Errorf("%w: field %d: %v", ErrInvalidBundle, num, err)
		}
		if num == fieldPublicMessagingKey {
			k.PublicMessagingKey = pub
		} else {
			k.PublicEphemeralKey = pub
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return k, nil
}

// consumeFields walks a protobuf message, calling fn with the bytes after each
// tag. fn returns how many bytes the field value used.
func consumeFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedEnvelope, protowire.ParseError(n))
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformedEnvelope, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}
