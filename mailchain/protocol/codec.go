package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameHeaderSize is the tag byte plus the 32-bit length.
	FrameHeaderSize = 5

	// MaxFramePayload limits a single frame read from a stream.
	MaxFramePayload = 16 << 20 // 16 MiB
)

var (
	ErrMalformedFrame = errors.New("protocol: malformed frame")
	ErrFrameTooLarge  = fmt.Errorf("%w: payload too large", ErrMalformedFrame)
	ErrInvalidType    = fmt.Errorf("%w: invalid frame type", ErrMalformedFrame)
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	4 bytes: payload length (big endian)
//	N bytes: payload
type Frame struct {
	Type    FrameType
	Payload []byte
}

func frameHeader(f Frame) ([FrameHeaderSize]byte, error) {
	var hdr [FrameHeaderSize]byte
	if !f.Type.Valid() {
		return hdr, fmt.Errorf("%w: %d", ErrInvalidType, f.Type)
	}
	if uint64(len(f.Payload)) > 1<<32-1 {
		return hdr, ErrFrameTooLarge
	}
	hdr[0] = byte(f.Type)
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(f.Payload)))
	return hdr, nil
}

// AppendFrame appends the encoding of f to dst.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	hdr, err := frameHeader(f)
	if err != nil {
		return dst, err
	}
	dst = append(dst, hdr[:]...)
	return append(dst, f.Payload...), nil
}

// WriteFrame writes f with a single Write call.
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}
	buf, err := AppendFrame(make([]byte, 0, FrameHeaderSize+len(f.Payload)), f)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadFrame reads one frame of at most MaxFramePayload bytes. A clean end of
// stream before the tag byte returns io.EOF; any other short read is a
// malformed frame.
func ReadFrame(r io.Reader) (Frame, error) {
	return readFrame(r, MaxFramePayload)
}

func readFrame(r io.Reader, maxPayload int) (Frame, error) {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:1]); err != nil {
		return Frame{}, err
	}
	ft := FrameType(hdr[0])
	if !ft.Valid() {
		return Frame{}, fmt.Errorf("%w: tag %d", ErrInvalidType, hdr[0])
	}
	if _, err := io.ReadFull(r, hdr[1:]); err != nil {
		return Frame{}, truncated(err)
	}
	payloadLen := binary.BigEndian.Uint32(hdr[1:])
	if uint64(payloadLen) > uint64(maxPayload) {
		return Frame{}, fmt.Errorf("%w: %s frame declares %d bytes, limit %d", ErrFrameTooLarge, ft, payloadLen, maxPayload)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, truncated(err)
		}
	}
	return Frame{Type: ft, Payload: payload}, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrMalformedFrame, io.ErrUnexpectedEOF)
	}
	return err
}
