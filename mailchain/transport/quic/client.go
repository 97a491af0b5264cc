package quic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	q "github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/mailchain/mailchain/delivery"
	"github.com/TheusHen/mailchain/mailchain/protocol"
)

var (
	ErrBadRequest     = errors.New("quic: malformed delivery request")
	ErrRejected       = errors.New("quic: delivery rejected by server")
	ErrUnexpectedType = errors.New("quic: unexpected frame type")
	ErrClientClosed   = errors.New("quic: client closed")
)

// Client delivers envelopes to one mail server. Each request uses its own
// stream on a shared connection, which is redialled if it drops.
type Client struct {
	addr string
	log  logrus.FieldLogger

	mu     sync.Mutex
	conn   q.Connection
	closed bool
}

var _ delivery.Transport = (*Client)(nil)

func NewClient(addr string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{addr: addr, log: log.WithFields(logrus.Fields{"component": "quic-client", "server": addr})}
}

func (c *Client) connection(ctx context.Context) (q.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	if c.conn != nil && c.conn.Context().Err() == nil {
		return c.conn, nil
	}
	conn, err := Dial(ctx, c.addr)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.log.Debug("connected")
	return conn, nil
}

// Deliver sends req in a DELIVER frame and waits for ACK or ERROR.
func (c *Client) Deliver(ctx context.Context, req delivery.Request) (string, error) {
	body, err := encodeRequest(req)
	if err != nil {
		return "", err
	}
	conn, err := c.connection(ctx)
	if err != nil {
		return "", err
	}
	st, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = st.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		st.CancelRead(0)
		st.CancelWrite(0)
	})
	defer stop()

	if err := protocol.WriteFrame(st, protocol.Frame{Type: protocol.FrameDeliver, Payload: body}); err != nil {
		return "", err
	}
	// Closing the send side tells the server the request is complete.
	if err := st.Close(); err != nil {
		return "", err
	}

	resp, err := protocol.ReadFrame(st)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	switch resp.Type {
	case protocol.FrameAck:
		return string(resp.Payload), nil
	case protocol.FrameError:
		return "", fmt.Errorf("%w: %s", ErrRejected, resp.Payload)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedType, resp.Type)
	}
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.CloseWithError(0, "client closed")
	c.conn = nil
	return err
}
