package quic

import (
	"context"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
)

const (
	idleTimeout    = 30 * time.Second
	keepAliveEvery = 10 * time.Second
)

// quicConfig keeps idle client connections alive between deliveries so a
// Client can reuse one connection for many requests.
func quicConfig() *q.Config {
	return &q.Config{MaxIdleTimeout: idleTimeout, KeepAlivePeriod: keepAliveEvery}
}

// Listener is a mail server's delivery endpoint. Each accepted connection
// carries one stream per delivery request; Server reads them.
type Listener struct {
	inner *q.Listener
}

// Listen binds a delivery endpoint on addr with a fresh self-signed
// certificate. Use port 0 to pick a free port and read it back with
// AddrString.
func Listen(addr string) (*Listener, error) {
	tlsConf, err := NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, quicConfig())
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

// Accept waits for the next sending client.
func (l *Listener) Accept(ctx context.Context) (q.Connection, error) {
	return l.inner.Accept(ctx)
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

// AddrString is the address senders should dial, or "" for a zero Listener.
func (l *Listener) AddrString() string {
	if l == nil || l.inner == nil {
		return ""
	}
	return l.inner.Addr().String()
}

func (l *Listener) Close() error { return l.inner.Close() }

// Dial connects a sender to the delivery endpoint at addr. The server's
// certificate is not checked: envelopes are already sealed to the
// recipient, and the server learns nothing it could not see on disk.
func Dial(ctx context.Context, addr string) (q.Connection, error) {
	return q.DialAddr(ctx, addr, NewClientTLSConfig(), quicConfig())
}
