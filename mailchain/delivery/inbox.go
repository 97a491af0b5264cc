package delivery

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TheusHen/mailchain/mailchain/envelope"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

// Delivered is one envelope accepted by an Inbox.
type Delivered struct {
	ID        string
	RequestID string
	Recipient keys.PublicKey
	Envelope  []byte
	Received  time.Time
}

// Inbox is an in-memory mailbox keyed by recipient messaging key. It
// implements Transport, so it can back a mail server or stand in for one.
type Inbox struct {
	mu       sync.RWMutex
	messages map[keys.ID][]Delivered
	seen     map[[sha256.Size]byte]string
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewInbox(log logrus.FieldLogger) *Inbox {
	if log == nil {
		log = logrus.New()
	}
	return &Inbox{
		messages: map[keys.ID][]Delivered{},
		seen:     map[[sha256.Size]byte]string{},
		log:      log.WithField("component", "inbox"),
		now:      time.Now,
	}
}

// Deliver accepts an envelope for req.Recipient. The envelope must decode and
// name the recipient in its key bundle. Identical envelope bytes for the same
// recipient return the original delivery ID without storing a second copy.
func (i *Inbox) Deliver(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	env, err := envelope.Unmarshal(req.Envelope)
	if err != nil {
		return "", err
	}
	if env.ECDHKeyBundle == nil || !env.ECDHKeyBundle.PublicMessagingKey.Equal(req.Recipient) {
		return "", fmt.Errorf("%w: bundle names a different key", envelope.ErrRecipientMismatch)
	}

	id := req.Recipient.ID()
	h := sha256.New()
	h.Write(id[:])
	h.Write(req.Envelope)
	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))

	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.seen[digest]; ok {
		i.log.WithFields(logrus.Fields{"request_id": req.ID, "delivery_id": existing}).Debug("duplicate envelope")
		return existing, nil
	}
	d := Delivered{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		Recipient: req.Recipient,
		Envelope:  bytes.Clone(req.Envelope),
		Received:  i.now(),
	}
	i.seen[digest] = d.ID
	i.messages[id] = append(i.messages[id], d)
	i.log.WithFields(logrus.Fields{"request_id": req.ID, "delivery_id": d.ID}).Debug("envelope accepted")
	return d.ID, nil
}

// Messages returns the envelopes delivered to recipient in arrival order.
func (i *Inbox) Messages(recipient keys.PublicKey) []Delivered {
	i.mu.RLock()
	defer i.mu.RUnlock()
	list := i.messages[recipient.ID()]
	out := make([]Delivered, len(list))
	copy(out, list)
	return out
}

// Len returns the number of stored envelopes.
func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.seen)
}
