package quic

import (
	"context"
	"errors"
	"sync"

	q "github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/mailchain/mailchain/delivery"
	"github.com/TheusHen/mailchain/mailchain/protocol"
)

// Server answers DELIVER frames by passing each request to a handler,
// usually a delivery.Inbox.
type Server struct {
	ln      *Listener
	handler delivery.Transport
	log     logrus.FieldLogger
	wg      sync.WaitGroup
}

func NewServer(ln *Listener, handler delivery.Transport, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{ln: ln, handler: handler, log: log.WithFields(logrus.Fields{"component": "quic-server", "addr": ln.AddrString()})}
}

// Serve accepts connections until ctx is done or the listener closes.
func (s *Server) Serve(ctx context.Context) error {
	defer s.wg.Wait()
	for {
		conn, err := s.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, q.ErrServerClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn q.Connection) {
	log := s.log.WithField("remote", conn.RemoteAddr().String())
	for {
		st, err := conn.AcceptStream(ctx)
		if err != nil {
			log.WithError(err).Debug("connection done")
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveStream(ctx, st, log)
		}()
	}
}

func (s *Server) serveStream(ctx context.Context, st q.Stream, log logrus.FieldLogger) {
	defer st.Close()

	f, err := protocol.ReadFrame(st)
	if err != nil {
		log.WithError(err).Warn("bad frame")
		_ = protocol.WriteFrame(st, protocol.Frame{Type: protocol.FrameError, Payload: []byte(err.Error())})
		return
	}
	if f.Type != protocol.FrameDeliver {
		_ = protocol.WriteFrame(st, protocol.Frame{Type: protocol.FrameError, Payload: []byte(ErrUnexpectedType.Error() + ": " + f.Type.String())})
		return
	}
	req, err := decodeRequest(f.Payload)
	if err != nil {
		_ = protocol.WriteFrame(st, protocol.Frame{Type: protocol.FrameError, Payload: []byte(err.Error())})
		return
	}

	id, err := s.handler.Deliver(ctx, req)
	if err != nil {
		log.WithError(err).WithField("request_id", req.ID).Warn("delivery refused")
		_ = protocol.WriteFrame(st, protocol.Frame{Type: protocol.FrameError, Payload: []byte(err.Error())})
		return
	}
	log.WithFields(logrus.Fields{"request_id": req.ID, "delivery_id": id}).Debug("delivery accepted")
	_ = protocol.WriteFrame(st, protocol.Frame{Type: protocol.FrameAck, Payload: []byte(id)})
}

// Close stops accepting connections.
func (s *Server) Close() error { return s.ln.Close() }
