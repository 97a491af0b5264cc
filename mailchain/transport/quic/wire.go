package quic

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/TheusHen/mailchain/mailchain/delivery"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

const (
	fieldRequestID protowire.Number = 1
	fieldRecipient protowire.Number = 2
	fieldEnvelope  protowire.Number = 3
)

// encodeRequest is the payload of a DELIVER frame.
func encodeRequest(req delivery.Request) ([]byte, error) {
	recipient, err := keys.EncodePublicKey(req.Recipient)
	if err != nil {
		return nil, err
	}
	var b []byte
	b = protowire.AppendTag(b, fieldRequestID, protowire.BytesType)
	b = protowire.AppendString(b, req.ID)
	b = protowire.AppendTag(b, fieldRecipient, protowire.BytesType)
	b = protowire.AppendBytes(b, recipient)
	b = protowire.AppendTag(b, fieldEnvelope, protowire.BytesType)
	b = protowire.AppendBytes(b, req.Envelope)
	return b, nil
}

func decodeRequest(b []byte) (delivery.Request, error) {
	var req delivery.Request
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return req, fmt.Errorf("%w: %v", ErrBadRequest, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
		} else {
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			switch num {
			case fieldRequestID:
				req.ID = string(v)
			case fieldRecipient:
				pub, err := keys.DecodePublicKey(v)
				if err != nil {
					return req, fmt.Errorf("%w: recipient: %v", ErrBadRequest, err)
				}
				req.Recipient = pub
			case fieldEnvelope:
				req.Envelope = append([]byte(nil), v...)
			}
		}
		if n < 0 {
			return req, fmt.Errorf("%w: %v", ErrBadRequest, protowire.ParseError(n))
		}
		b = b[n:]
	}
	if req.Recipient.IsZero() || len(req.Envelope) == 0 {
		return req, fmt.Errorf("%w: missing recipient or envelope", ErrBadRequest)
	}
	return req, nil
}
