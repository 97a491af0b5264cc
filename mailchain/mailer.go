package mailchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/TheusHen/mailchain/mailchain/config"
	"github.com/TheusHen/mailchain/mailchain/delivery"
	"github.com/TheusHen/mailchain/mailchain/directory"
	dirmemory "github.com/TheusHen/mailchain/mailchain/directory/memory"
	"github.com/TheusHen/mailchain/mailchain/keyring"
	"github.com/TheusHen/mailchain/mailchain/keys"
	"github.com/TheusHen/mailchain/mailchain/storage"
	"github.com/TheusHen/mailchain/mailchain/storage/erasure"
	"github.com/TheusHen/mailchain/mailchain/storage/memory"
	"github.com/TheusHen/mailchain/mailchain/transport/quic"
)

var (
	ErrNotListening   = errors.New("mailchain: no listen address configured")
	ErrAlreadyServing = errors.New("mailchain: already serving")
)

// Options overrides the components a Mailer would otherwise build from its
// config. Nil fields get the defaults.
type Options struct {
	Config     *config.Config
	Logger     logrus.FieldLogger
	Registerer prometheus.Registerer
	Directory  directory.Registry
	Store      storage.Store
	Transport  delivery.Transport
}

// Mailer is the high-level entry point: one value that can send, receive
// and optionally run a QUIC delivery server backed by its Inbox.
type Mailer struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	gatherer prometheus.Gatherer
	dir      directory.Registry
	store    storage.Store
	inbox    *delivery.Inbox
	client   *quic.Client
	sender   *delivery.Sender
	receiver *delivery.Receiver

	mu       sync.Mutex
	listener *quic.Listener
	server   *quic.Server
}

// New builds a Mailer. Without a configured transport server, deliveries go
// straight into the Mailer's own Inbox.
func New(opts Options) (*Mailer, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = cfg.NewLogger()
	}

	m := &Mailer{cfg: cfg, log: log, dir: opts.Directory, store: opts.Store}

	var metrics *delivery.Metrics
	if cfg.Metrics.Enabled {
		reg := opts.Registerer
		if reg == nil {
			r := prometheus.NewRegistry()
			reg, m.gatherer = r, r
		} else if g, ok := reg.(prometheus.Gatherer); ok {
			m.gatherer = g
		}
		metrics = delivery.NewMetrics(reg)
	}

	if m.dir == nil {
		m.dir = dirmemory.New()
	}
	if m.store == nil {
		s, err := newStore(cfg.Storage, log)
		if err != nil {
			return nil, err
		}
		m.store = s
	}
	m.inbox = delivery.NewInbox(log)

	transport := opts.Transport
	switch {
	case transport != nil:
	case cfg.Transport.Server != "":
		m.client = quic.NewClient(cfg.Transport.Server, log)
		transport = m.client
	default:
		transport = m.inbox
	}

	var err error
	m.sender, err = delivery.NewSender(delivery.SenderConfig{
		Resolver:    m.dir,
		Store:       m.store,
		Transport:   transport,
		Logger:      log,
		Metrics:     metrics,
		ChunkSize:   cfg.Payload.ChunkSize,
		Workers:     cfg.Payload.Workers,
		Concurrency: cfg.Delivery.Concurrency,
		RateLimit:   rate.Limit(cfg.Delivery.RateLimit),
		Burst:       cfg.Delivery.Burst,
	})
	if err != nil {
		return nil, err
	}
	m.receiver, err = delivery.NewReceiver(delivery.ReceiverConfig{Store: m.store, Logger: log, Metrics: metrics})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newStore(cfg config.StorageConfig, log logrus.FieldLogger) (storage.Store, error) {
	if cfg.Backend != config.BackendErasure {
		return memory.New(""), nil
	}
	backends := make([]storage.Store, cfg.DataShards+cfg.ParityShards)
	for i := range backends {
		backends[i] = memory.New(fmt.Sprintf("shard%d", i))
	}
	return erasure.NewStore(cfg.DataShards, cfg.ParityShards, backends, log)
}

func (m *Mailer) Config() *config.Config { return m.cfg }

func (m *Mailer) Directory() directory.Registry { return m.dir }

func (m *Mailer) Store() storage.Store { return m.store }

func (m *Mailer) Inbox() *delivery.Inbox { return m.inbox }

// Gatherer exposes the metrics registry, or nil when metrics are disabled
// or the caller's Registerer cannot be gathered.
func (m *Mailer) Gatherer() prometheus.Gatherer { return m.gatherer }

// Register derives the messaging key for address from kr and publishes it in
// the Mailer's directory.
func (m *Mailer) Register(ctx context.Context, kr *keyring.Keyring, protocol, address string, nonce uint32) (keys.PrivateKey, error) {
	return kr.Register(ctx, m.dir, protocol, address, nonce)
}

// Send encrypts body once and delivers an envelope to every address in to,
// using the payload settings from the config.
func (m *Mailer) Send(ctx context.Context, from keys.PrivateKey, to []string, body []byte) (*delivery.Report, error) {
	return m.SendMessage(ctx, delivery.Message{
		From:        from,
		To:          to,
		Body:        body,
		ContentType: m.cfg.Payload.ContentType,
		Encoding:    m.cfg.Payload.Encoding,
		Encryption:  m.cfg.Payload.Encryption,
	})
}

// SendMessage sends msg as given. Empty payload fields are left to the
// payload package defaults.
func (m *Mailer) SendMessage(ctx context.Context, msg delivery.Message) (*delivery.Report, error) {
	if t := m.cfg.Delivery.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return m.sender.Send(ctx, msg)
}

// Open decrypts one envelope with the recipient's messaging key.
func (m *Mailer) Open(ctx context.Context, envelope []byte, priv keys.PrivateKey) (*delivery.Received, error) {
	return m.receiver.Open(ctx, envelope, priv)
}

// Fetch opens every envelope in the Inbox addressed to priv. Envelopes that
// fail to open are logged and skipped.
func (m *Mailer) Fetch(ctx context.Context, priv keys.PrivateKey) ([]*delivery.Received, error) {
	var out []*delivery.Received
	for _, d := range m.inbox.Messages(priv.PublicKey()) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		msg, err := m.receiver.Open(ctx, d.Envelope, priv)
		if err != nil {
			m.log.WithError(err).WithField("delivery_id", d.ID).Warn("skipping envelope")
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Listen opens the QUIC listener configured in transport.listen.
func (m *Mailer) Listen() error {
	if m.cfg.Transport.Listen == "" {
		return ErrNotListening
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener != nil {
		return ErrAlreadyServing
	}
	ln, err := quic.Listen(m.cfg.Transport.Listen)
	if err != nil {
		return err
	}
	m.listener = ln
	m.server = quic.NewServer(ln, m.inbox, m.log)
	return nil
}

// ListenAddr returns the bound QUIC address, or "" before Listen.
func (m *Mailer) ListenAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.AddrString()
}

// Serve answers deliveries into the Inbox until ctx is done. Listen must be
// called first.
func (m *Mailer) Serve(ctx context.Context) error {
	m.mu.Lock()
	srv := m.server
	m.mu.Unlock()
	if srv == nil {
		return ErrNotListening
	}
	return srv.Serve(ctx)
}

// Close stops the server and the client connection.
func (m *Mailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.server != nil {
		errs = append(errs, m.server.Close())
		m.server, m.listener = nil, nil
	}
	if m.client != nil {
		errs = append(errs, m.client.Close())
	}
	return errors.Join(errs...)
}
