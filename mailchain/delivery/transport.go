package delivery

import (
	"context"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

// Request is one envelope addressed to one recipient.
type Request struct {
	ID        string
	Recipient keys.PublicKey
	Envelope  []byte
}

// Transport hands a request to the recipient's mail server and returns the
// identifier the server assigned to it. Resending identical envelope bytes
// to the same recipient has no further effect.
type Transport interface {
	Deliver(ctx context.Context, req Request) (string, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (string, error)

func (f TransportFunc) Deliver(ctx context.Context, req Request) (string, error) { return f(ctx, req) }
