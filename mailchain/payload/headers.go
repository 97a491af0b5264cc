package payload

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TheusHen/mailchain/mailchain/keys"
)

// Canonical header field names, in wire order.
const (
	FieldContentEncoding   = "Content-Encoding"
	FieldContentEncryption = "Content-Encryption"
	FieldContentLength     = "Content-Length"
	FieldContentSignature  = "Content-Signature"
	FieldContentType       = "Content-Type"
	FieldCreated           = "Created"
	FieldOrigin            = "Origin"
	FieldMailerContent     = "Mailer-Content"
)

var requiredFields = []string{
	FieldContentEncoding,
	FieldContentEncryption,
	FieldContentLength,
	FieldContentSignature,
	FieldContentType,
	FieldCreated,
	FieldOrigin,
}

const crlf = "\r\n"

// Headers describe a payload. ContentLength counts the carried (encoded)
// content; ContentSignature signs the decoded body.
type Headers struct {
	ContentEncoding   string
	ContentEncryption string
	ContentLength     int
	ContentSignature  []byte
	ContentType       string
	Created           time.Time
	Origin            keys.PublicKey
	MailerContent     []byte // optional
}

// Marshal returns the canonical header block: one "Field-Name: value" line per
// field, each terminated by CRLF, in fixed order.
func (h Headers) Marshal() ([]byte, error) {
	if h.Origin.IsZero() {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedHeaders, FieldOrigin)
	}
	if h.ContentLength < 0 {
		return nil, fmt.Errorf("%w: negative %s", ErrMalformedHeaders, FieldContentLength)
	}
	values := []string{
		h.ContentEncoding,
		h.ContentEncryption,
		strconv.Itoa(h.ContentLength),
		base64.StdEncoding.EncodeToString(h.ContentSignature),
		h.ContentType,
		h.Created.UTC().Format(time.RFC3339Nano),
		h.Origin.Base58(),
	}

	var buf bytes.Buffer
	for i, name := range requiredFields {
		if err := writeField(&buf, name, values[i]); err != nil {
			return nil, err
		}
	}
	if len(h.MailerContent) > 0 {
		if err := writeField(&buf, FieldMailerContent, base64.StdEncoding.EncodeToString(h.MailerContent)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: empty %s", ErrMalformedHeaders, name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: line break in %s", ErrMalformedHeaders, name)
	}
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString(crlf)
	return nil
}

// ParseHeaders parses a canonical header block. Unknown, duplicate,
// reordered or missing fields are rejected.
func ParseHeaders(b []byte) (Headers, error) {
	s := string(b)
	if !strings.HasSuffix(s, crlf) {
		return Headers{}, fmt.Errorf("%w: block must end with CRLF", ErrMalformedHeaders)
	}
	lines := strings.Split(strings.TrimSuffix(s, crlf), crlf)
	if len(lines) != len(requiredFields) && len(lines) != len(requiredFields)+1 {
		return Headers{}, fmt.Errorf("%w: %d fields", ErrMalformedHeaders, len(lines))
	}

	order := append(append([]string(nil), requiredFields...), FieldMailerContent)
	values := make([]string, len(lines))
	for i, line := range lines {
		name, value, ok := strings.Cut(line, ": ")
		if !ok || value == "" {
			return Headers{}, fmt.Errorf("%w: line %d", ErrMalformedHeaders, i+1)
		}
		if name != order[i] {
			return Headers{}, fmt.Errorf("%w: got %q at position %d, want %q", ErrMalformedHeaders, name, i+1, order[i])
		}
		if strings.ContainsAny(value, "\r\n") {
			return Headers{}, fmt.Errorf("%w: line break in %s", ErrMalformedHeaders, name)
		}
		values[i] = value
	}

	h := Headers{
		ContentEncoding:   values[0],
		ContentEncryption: values[1],
		ContentType:       values[4],
	}
	var err error
	if h.ContentLength, err = strconv.Atoi(values[2]); err != nil || h.ContentLength < 0 {
		return Headers{}, fmt.Errorf("%w: %s %q", ErrMalformedHeaders, FieldContentLength, values[2])
	}
	if h.ContentSignature, err = base64.StdEncoding.DecodeString(values[3]); err != nil {
		return Headers{}, fmt.Errorf("%w: %s: %v", ErrMalformedHeaders, FieldContentSignature, err)
	}
	if h.Created, err = time.Parse(time.RFC3339Nano, values[5]); err != nil {
		return Headers{}, fmt.Errorf("%w: %s: %v", ErrMalformedHeaders, FieldCreated, err)
	}
	if h.Origin, err = keys.ParseBase58PublicKey(values[6]); err != nil {
		return Headers{}, fmt.Errorf("%w: %s: %v", ErrMalformedHeaders, FieldOrigin, err)
	}
	if len(values) > len(requiredFields) {
		if h.MailerContent, err = base64.StdEncoding.DecodeString(values[7]); err != nil {
			return Headers{}, fmt.Errorf("%w: %s: %v", ErrMalformedHeaders, FieldMailerContent, err)
		}
	}
	return h, nil
}
