package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/payload"
)

// Version is the only payload stream version.
const Version byte = 1

// MaxChunkSize is the largest plaintext chunk whose sealed form still fits
// in one frame.
const MaxChunkSize = MaxFramePayload - crypto.MaxSealOverhead

var (
	ErrNoChunks           = errors.New("protocol: payload has no chunks")
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrMalformedFrame)
)

// Serialize encodes ep as [version][HEADER][CHUNK...][FINAL_CHUNK]. Only the
// last chunk is tagged FINAL_CHUNK. A payload with no chunks cannot be
// framed and returns ErrNoChunks.
func Serialize(ep *payload.EncryptedPayload) ([]byte, error) {
	if len(ep.Chunks) == 0 {
		return nil, ErrNoChunks
	}
	size := 1 + FrameHeaderSize + len(ep.Headers)
	for _, c := range ep.Chunks {
		size += FrameHeaderSize + len(c)
	}
	var buf bytes.Buffer
	buf.Grow(size)
	if err := WritePayload(&buf, ep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePayload streams the framed form of ep to w.
func WritePayload(w io.Writer, ep *payload.EncryptedPayload) error {
	if len(ep.Chunks) == 0 {
		return ErrNoChunks
	}
	bw := bufio.NewWriter(w)
	if err := bw.WriteByte(Version); err != nil {
		return err
	}
	write := func(f Frame) error {
		if len(f.Payload) > MaxFramePayload {
			return fmt.Errorf("%w: %s frame is %d bytes, limit %d", ErrFrameTooLarge, f.Type, len(f.Payload), MaxFramePayload)
		}
		// Header and payload are written separately to avoid copying chunks.
		hdr, err := frameHeader(f)
		if err != nil {
			return err
		}
		if _, err := bw.Write(hdr[:]); err != nil {
			return err
		}
		_, err = bw.Write(f.Payload)
		return err
	}

	if err := write(Frame{Type: FrameHeader, Payload: ep.Headers}); err != nil {
		return err
	}
	last := len(ep.Chunks) - 1
	for i, c := range ep.Chunks {
		ft := FrameChunk
		if i == last {
			ft = FrameFinalChunk
		}
		if err := write(Frame{Type: ft, Payload: c}); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Deserialize decodes a complete payload stream. The declared length of a
// frame may never exceed the remaining input, and nothing may follow the
// FINAL_CHUNK frame.
func Deserialize(b []byte) (*payload.EncryptedPayload, error) {
	d := NewDecoder(bytes.NewReader(b))
	d.maxPayload = len(b)
	return d.Decode()
}
