package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/envelope"
	"github.com/TheusHen/mailchain/mailchain/keys"
	"github.com/TheusHen/mailchain/mailchain/payload"
	"github.com/TheusHen/mailchain/mailchain/protocol"
	"github.com/TheusHen/mailchain/mailchain/storage"
)

// Received is an opened message.
type Received struct {
	URI     string
	Headers payload.Headers
	Body    []byte
}

// ReceiverConfig wires a Receiver.
type ReceiverConfig struct {
	Store   storage.Store
	Logger  logrus.FieldLogger
	Metrics *Metrics
}

// Receiver opens envelopes addressed to a messaging key.
type Receiver struct {
	store   storage.Store
	log     logrus.FieldLogger
	metrics *Metrics
}

func NewReceiver(cfg ReceiverConfig) (*Receiver, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrMissingConfig)
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Receiver{store: cfg.Store, log: log.WithField("component", "receiver"), metrics: cfg.Metrics}, nil
}

// Open decodes an envelope, fetches the payload it points to and returns the
// verified message. Any chunk failure or signature mismatch rejects the
// whole message.
func (r *Receiver) Open(ctx context.Context, envelopeBytes []byte, priv keys.PrivateKey) (*Received, error) {
	msg, err := r.open(ctx, envelopeBytes, priv)
	r.metrics.opened(err)
	if err != nil {
		r.log.WithError(err).Warn("message rejected")
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"uri": msg.URI, "bytes": len(msg.Body)}).Debug("message opened")
	return msg, nil
}

func (r *Receiver) open(ctx context.Context, envelopeBytes []byte, priv keys.PrivateKey) (*Received, error) {
	env, err := envelope.Unmarshal(envelopeBytes)
	if err != nil {
		return nil, err
	}
	root, uri, err := envelope.Open(env, priv)
	if err != nil {
		return nil, err
	}
	defer root.Zero()

	framed, err := r.store.Get(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("delivery: fetch payload: %w", err)
	}

	dec := protocol.NewDecoder(bytes.NewReader(framed))
	sealedHeaders, err := dec.Header()
	if err != nil {
		return nil, err
	}
	headers, err := payload.DecryptHeaders(sealedHeaders, root)
	if err != nil {
		return nil, err
	}
	cipher, err := crypto.CipherByName(headers.ContentEncryption, nil)
	if err != nil {
		return nil, err
	}
	content, err := root.ContentKey()
	if err != nil {
		return nil, err
	}
	defer content.Zero()

	var plain [][]byte
	for {
		c, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		pt, err := payload.DecryptChunk(content, cipher, c.Index, c.Data)
		if err != nil {
			return nil, err
		}
		plain = append(plain, pt)
	}

	p := &payload.Payload{Headers: headers, Content: payload.Join(plain)}
	if err := p.Verify(); err != nil {
		return nil, err
	}
	body, err := p.Body()
	if err != nil {
		return nil, err
	}
	return &Received{URI: uri, Headers: headers, Body: body}, nil
}
