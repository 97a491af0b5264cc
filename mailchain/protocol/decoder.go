package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/TheusHen/mailchain/mailchain/payload"
)

type decoderState uint8

const (
	stateStart decoderState = iota
	stateChunks
	stateDone
	stateClosed
)

// Decoder reads a payload stream incrementally so chunks can be decrypted
// while the rest of the stream is still in flight.
type Decoder struct {
	r          *bufio.Reader
	state      decoderState
	index      int
	maxPayload int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r), maxPayload: MaxFramePayload}
}

// Header reads the version byte and the HEADER frame. It must be the first
// call on a Decoder.
func (d *Decoder) Header() ([]byte, error) {
	if d.state != stateStart {
		return nil, errors.New("protocol: header already read")
	}
	d.state = stateClosed

	v, err := d.r.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	if v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	f, err := readFrame(d.r, d.maxPayload)
	if err != nil {
		return nil, truncated(err)
	}
	if f.Type != FrameHeader {
		return nil, fmt.Errorf("%w: first frame is %s, want %s", ErrMalformedFrame, f.Type, FrameHeader)
	}
	d.state = stateChunks
	return f.Payload, nil
}

// Chunk is one sealed chunk read from a stream.
type Chunk struct {
	Index int
	Data  []byte
	Final bool
}

// Next returns the next chunk. After the final chunk it checks that the
// stream ends and returns io.EOF.
func (d *Decoder) Next() (Chunk, error) {
	switch d.state {
	case stateStart:
		return Chunk{}, errors.New("protocol: Next called before Header")
	case stateDone:
		d.state = stateClosed
		if _, err := d.r.ReadByte(); err == nil {
			return Chunk{}, fmt.Errorf("%w: trailing bytes after %s", ErrMalformedFrame, FrameFinalChunk)
		} else if !errors.Is(err, io.EOF) {
			return Chunk{}, err
		}
		return Chunk{}, io.EOF
	case stateClosed:
		return Chunk{}, io.EOF
	}

	f, err := readFrame(d.r, d.maxPayload)
	if err != nil {
		d.state = stateClosed
		if errors.Is(err, io.EOF) {
			return Chunk{}, fmt.Errorf("%w: stream ended without %s", ErrMalformedFrame, FrameFinalChunk)
		}
		return Chunk{}, err
	}
	c := Chunk{Index: d.index, Data: f.Payload}
	switch f.Type {
	case FrameChunk:
	case FrameFinalChunk:
		c.Final = true
		d.state = stateDone
	default:
		d.state = stateClosed
		return Chunk{}, fmt.Errorf("%w: unexpected %s frame", ErrMalformedFrame, f.Type)
	}
	d.index++
	return c, nil
}

// Decode reads the whole stream.
func (d *Decoder) Decode() (*payload.EncryptedPayload, error) {
	headers, err := d.Header()
	if err != nil {
		return nil, err
	}
	ep := &payload.EncryptedPayload{Headers: headers}
	for {
		c, err := d.Next()
		if errors.Is(err, io.EOF) {
			return ep, nil
		}
		if err != nil {
			return nil, err
		}
		ep.Chunks = append(ep.Chunks, c.Data)
	}
}
