package payload

import (
	"errors"
	"fmt"
	"time"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

// DefaultContentType is used when ComposeOptions leaves ContentType empty.
const DefaultContentType = "message/x.mailchain"

// Payload is a header block plus the carried content.
type Payload struct {
	Headers Headers
	Content []byte
}

// ComposeOptions control how a body becomes a Payload.
type ComposeOptions struct {
	ContentType   string
	Encoding      string // EncodingIdentity when empty
	Encryption    string // crypto.CipherNaClSecretKey when empty
	MailerContent []byte
	Now           func() time.Time
}

// Compose encodes body, signs it with sender and fills in the headers.
func Compose(body []byte, opts ComposeOptions, sender keys.PrivateKey) (*Payload, error) {
	if sender.IsZero() {
		return nil, errors.New("payload: missing sender key")
	}
	if opts.ContentType == "" {
		opts.ContentType = DefaultContentType
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingIdentity
	}
	if opts.Encryption == "" {
		opts.Encryption = crypto.CipherNaClSecretKey
	}
	if _, err := crypto.CipherByName(opts.Encryption, nil); err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	content, err := Encode(opts.Encoding, body)
	if err != nil {
		return nil, err
	}
	sig, err := sender.Sign(body)
	if err != nil {
		return nil, fmt.Errorf("payload: sign content: %w", err)
	}

	return &Payload{
		Headers: Headers{
			ContentEncoding:   opts.Encoding,
			ContentEncryption: opts.Encryption,
			ContentLength:     len(content),
			ContentSignature:  sig,
			ContentType:       opts.ContentType,
			Created:           now().UTC(),
			Origin:            sender.PublicKey(),
			MailerContent:     opts.MailerContent,
		},
		Content: content,
	}, nil
}

// Body returns the decoded message body.
func (p *Payload) Body() ([]byte, error) {
	if len(p.Content) != p.Headers.ContentLength {
		return nil, fmt.Errorf("%w: have %d bytes, header says %d", ErrLengthMismatch, len(p.Content), p.Headers.ContentLength)
	}
	return Decode(p.Headers.ContentEncoding, p.Content)
}

// Verify checks the content signature against the Origin header.
func (p *Payload) Verify() error {
	body, err := p.Body()
	if err != nil {
		return err
	}
	if !p.Headers.Origin.Verify(body, p.Headers.ContentSignature) {
		return ErrInvalidSignature
	}
	return nil
}
