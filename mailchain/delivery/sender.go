package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/crypto/derive"
	"github.com/TheusHen/mailchain/mailchain/directory"
	"github.com/TheusHen/mailchain/mailchain/envelope"
	"github.com/TheusHen/mailchain/mailchain/keys"
	"github.com/TheusHen/mailchain/mailchain/payload"
	"github.com/TheusHen/mailchain/mailchain/protocol"
	"github.com/TheusHen/mailchain/mailchain/storage"
)

// Message is an outgoing message.
type Message struct {
	From          keys.PrivateKey
	To            []string
	Body          []byte
	ContentType   string
	Encoding      string
	Encryption    string
	MailerContent []byte
}

// Result is the outcome for one recipient.
type Result struct {
	Address    string
	Recipient  keys.PublicKey
	RequestID  string
	DeliveryID string
	Err        error
}

// Report collects the per-recipient results of one Send.
type Report struct {
	URI     string
	Results []Result
}

// Delivered returns the successful results.
func (r *Report) Delivered() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the failed results.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every recipient failure, or returns nil when all succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, &RecipientError{Address: res.Address, Err: res.Err})
		}
	}
	return errors.Join(errs...)
}

// SenderConfig wires a Sender.
type SenderConfig struct {
	Resolver  directory.Resolver
	Store     storage.Store
	Transport Transport

	Logger  logrus.FieldLogger
	Metrics *Metrics

	ChunkSize   int        // payload.DefaultChunkSize when zero
	Workers     int        // chunk encryption workers
	Concurrency int        // concurrent deliveries, 8 when zero
	RateLimit   rate.Limit // deliveries per second, unlimited when zero
	Burst       int
	Rand        io.Reader // crypto/rand when nil
}

// Sender delivers messages.
type Sender struct {
	cfg     SenderConfig
	limiter *rate.Limiter
	log     logrus.FieldLogger
	rand    io.Reader
}

// NewSender validates cfg and returns a Sender.
func NewSender(cfg SenderConfig) (*Sender, error) {
	if cfg.Resolver == nil || cfg.Store == nil || cfg.Transport == nil {
		return nil, fmt.Errorf("%w: resolver, store and transport are required", ErrMissingConfig)
	}
	if cfg.ChunkSize < 0 || cfg.ChunkSize > protocol.MaxChunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, limit %d", ErrInvalidConfig, cfg.ChunkSize, protocol.MaxChunkSize)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	limit, burst := cfg.RateLimit, cfg.Burst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Sender{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		log:     log.WithField("component", "sender"),
		rand:    crypto.Reader(cfg.Rand),
	}, nil
}

type target struct {
	address string
	key     keys.PublicKey
	err     error
}

// Send delivers msg to every recipient. The returned error covers failures
// that stop the whole message (empty body, encryption, storage); recipient
// failures are reported in the Report only.
func (s *Sender) Send(ctx context.Context, msg Message) (*Report, error) {
	if len(msg.Body) == 0 {
		return nil, ErrEmptyBody
	}
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if msg.From.IsZero() {
		return nil, ErrMissingSender
	}

	targets := s.resolve(ctx, msg.To)
	report := &Report{Results: make([]Result, len(targets))}

	err := derive.WithRootKey(s.rand, func(root *derive.RootKey) error {
		uri, err := s.storePayload(ctx, msg, root)
		if err != nil {
			return err
		}
		report.URI = uri

		var g errgroup.Group
		g.SetLimit(s.cfg.Concurrency)
		for i, t := range targets {
			i, t := i, t
			report.Results[i] = Result{Address: t.address, Recipient: t.key, Err: t.err}
			if t.err != nil {
				continue
			}
			g.Go(func() error {
				report.Results[i] = s.deliver(ctx, t, root, uri)
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"uri":        report.URI,
		"recipients": len(report.Results),
		"failed":     len(report.Failed()),
	}).Info("message sent")
	return report, nil
}

func (s *Sender) resolve(ctx context.Context, to []string) []target {
	seen := make(map[string]bool, len(to))
	targets := make([]target, 0, len(to))
	for _, raw := range to {
		addr, err := directory.NormalizeAddress(raw)
		if err != nil {
			targets = append(targets, target{address: raw, err: err})
			continue
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		key, err := s.cfg.Resolver.Resolve(ctx, addr)
		if err != nil {
			s.log.WithError(err).WithField("recipient", addr).Warn("recipient not resolved")
		}
		targets = append(targets, target{address: addr, key: key, err: err})
	}
	return targets
}

func (s *Sender) storePayload(ctx context.Context, msg Message, root *derive.RootKey) (string, error) {
	p, err := payload.Compose(msg.Body, payload.ComposeOptions{
		ContentType:   msg.ContentType,
		Encoding:      msg.Encoding,
		Encryption:    msg.Encryption,
		MailerContent: msg.MailerContent,
	}, msg.From)
	if err != nil {
		return "", err
	}
	ep, err := payload.Encrypt(p, root, payload.Options{
		ChunkSize: s.cfg.ChunkSize,
		Workers:   s.cfg.Workers,
		Rand:      s.rand,
	})
	if err != nil {
		return "", err
	}
	framed, err := protocol.Serialize(ep)
	if err != nil {
		return "", err
	}
	uri, err := s.cfg.Store.Put(ctx, framed)
	if err != nil {
		return "", fmt.Errorf("delivery: store payload: %w", err)
	}
	s.cfg.Metrics.stored(len(framed))
	s.log.WithFields(logrus.Fields{"uri": uri, "chunks": len(ep.Chunks), "bytes": len(framed)}).Debug("payload stored")
	return uri, nil
}

func (s *Sender) deliver(ctx context.Context, t target, root *derive.RootKey, uri string) Result {
	res := Result{Address: t.address, Recipient: t.key, RequestID: uuid.NewString()}
	log := s.log.WithFields(logrus.Fields{"recipient": t.address, "request_id": res.RequestID})

	start := time.Now()
	env, err := envelope.Create(t.key, root, uri, s.rand)
	if err != nil {
		res.Err = err
		s.cfg.Metrics.delivered(err)
		log.WithError(err).Warn("envelope not built")
		return res
	}
	wire, err := env.Marshal()
	s.cfg.Metrics.envelopeBuilt(time.Since(start))
	if err != nil {
		res.Err = err
		s.cfg.Metrics.delivered(err)
		return res
	}

	if err := s.limiter.Wait(ctx); err != nil {
		res.Err = err
		s.cfg.Metrics.delivered(err)
		return res
	}
	res.DeliveryID, res.Err = s.cfg.Transport.Deliver(ctx, Request{
		ID:        res.RequestID,
		Recipient: t.key,
		Envelope:  wire,
	})
	s.cfg.Metrics.delivered(res.Err)
	if res.Err != nil {
		log.WithError(res.Err).Warn("delivery failed")
	} else {
		log.WithField("delivery_id", res.DeliveryID).Debug("delivered")
	}
	return res
}
