package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/payload"
)

func samplePayload(chunks ...int) *payload.EncryptedPayload {
	ep := &payload.EncryptedPayload{Headers: bytes.Repeat([]byte{'h'}, 16)}
	for i, n := range chunks {
		ep.Chunks = append(ep.Chunks, bytes.Repeat([]byte{byte('a' + i)}, n))
	}
	return ep
}

// frameTags walks a serialized stream and returns the tag of every frame.
func frameTags(t *testing.T, b []byte) []FrameType {
	t.Helper()
	var tags []FrameType
	r := bytes.NewReader(b[1:])
	for {
		f, err := ReadFrame(r)
		if err == io.EOF {
			return tags
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		tags = append(tags, f.Type)
	}
}

func TestSerializeLiteralHeader(t *testing.T) {
	ep := samplePayload(1)
	b, err := Serialize(ep)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := append([]byte{Version, 0x01, 0x00, 0x00, 0x00, 0x10}, ep.Headers...)
	if !bytes.HasPrefix(b, want) {
		t.Fatalf("got % x, want prefix % x", b[:len(want)], want)
	}
}

func TestSerializeChunkTags(t *testing.T) {
	cases := []struct {
		name   string
		chunks []int
		tags   []FrameType
	}{
		{"single", []int{17}, []FrameType{FrameHeader, FrameFinalChunk}},
		{"three", []int{17, 17, 17}, []FrameType{FrameHeader, FrameChunk, FrameChunk, FrameFinalChunk}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Serialize(samplePayload(tc.chunks...))
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if b[0] != Version {
				t.Fatalf("version byte = %d", b[0])
			}
			got := frameTags(t, b)
			if len(got) != len(tc.tags) {
				t.Fatalf("got tags %v, want %v", got, tc.tags)
			}
			for i := range got {
				if got[i] != tc.tags[i] {
					t.Fatalf("got tags %v, want %v", got, tc.tags)
				}
			}
		})
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	for _, chunks := range [][]int{{1}, {0}, {5, 3}, {100, 100, 100, 7}} {
		in := samplePayload(chunks...)
		b, err := Serialize(in)
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		out, err := Deserialize(b)
		if err != nil {
			t.Fatalf("Deserialize(%v): %v", chunks, err)
		}
		if !bytes.Equal(out.Headers, in.Headers) || len(out.Chunks) != len(in.Chunks) {
			t.Fatalf("round trip mismatch for %v", chunks)
		}
		for i := range in.Chunks {
			if !bytes.Equal(out.Chunks[i], in.Chunks[i]) {
				t.Fatalf("chunk %d mismatch", i)
			}
		}
	}
}

func TestSerializeWithoutChunks(t *testing.T) {
	if _, err := Serialize(samplePayload()); !errors.Is(err, ErrNoChunks) {
		t.Fatalf("expected ErrNoChunks, got %v", err)
	}
}

func TestDeserializeRejectsMalformed(t *testing.T) {
	good, _ := Serialize(samplePayload(4, 4))
	header := func(rest ...byte) []byte {
		b := append([]byte{Version, 0x01, 0, 0, 0, 1, 'h'}, rest...)
		return b
	}

	cases := map[string][]byte{
		"empty":               nil,
		"version only":        {Version},
		"bad version":         append([]byte{2}, good[1:]...),
		"tag zero":            header(0x00, 0, 0, 0, 1, 'x'),
		"tag 255":             header(0xff, 0, 0, 0, 1, 'x'),
		"length overflow":     header(0x03, 0, 0, 0, 9, 'x'),
		"ends on chunk":       header(0x02, 0, 0, 0, 1, 'x'),
		"header only":         header(),
		"trailing bytes":      append(append([]byte(nil), good...), 0x00),
		"trailing frame":      append(append([]byte(nil), good...), 0x03, 0, 0, 0, 0),
		"chunk before header": {Version, 0x03, 0, 0, 0, 1, 'x'},
		"duplicate header":    header(0x01, 0, 0, 0, 1, 'h', 0x03, 0, 0, 0, 1, 'x'),
		"transport frame":     header(0x10, 0, 0, 0, 1, 'x', 0x03, 0, 0, 0, 1, 'x'),
		"truncated":           good[:len(good)-1],
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Deserialize(b); !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("expected ErrMalformedFrame, got %v", err)
			}
		})
	}
}

func TestDecoderStreamsChunks(t *testing.T) {
	b, _ := Serialize(samplePayload(3, 3, 2))
	pr, pw := io.Pipe()
	go func() {
		// Feed the stream one byte at a time.
		for i := range b {
			if _, err := pw.Write(b[i : i+1]); err != nil {
				return
			}
		}
		_ = pw.Close()
	}()

	d := NewDecoder(pr)
	h, err := d.Header()
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if len(h) != 16 {
		t.Fatalf("header is %d bytes", len(h))
	}
	var finals []bool
	for {
		c, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if c.Index != len(finals) {
			t.Fatalf("chunk index %d, want %d", c.Index, len(finals))
		}
		finals = append(finals, c.Final)
	}
	if len(finals) != 3 || finals[0] || finals[1] || !finals[2] {
		t.Fatalf("unexpected final flags %v", finals)
	}
}

func TestDecoderRequiresHeaderFirst(t *testing.T) {
	d := NewDecoder(bytes.NewReader(nil))
	if _, err := d.Next(); err == nil {
		t.Fatalf("expected error calling Next before Header")
	}
}

func TestSerializeRejectsChunkBeyondFrameLimit(t *testing.T) {
	if _, err := Serialize(samplePayload(MaxFramePayload + 1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}

	// The largest sealed chunk still round-trips through the streaming decoder.
	b, err := Serialize(samplePayload(MaxChunkSize + crypto.MaxSealOverhead))
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	d := NewDecoder(bytes.NewReader(b))
	if _, err := d.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}
	c, err := d.Next()
	if err != nil || !c.Final || len(c.Data) != MaxFramePayload {
		t.Fatalf("Next: final=%v len=%d err=%v", c.Final, len(c.Data), err)
	}
}
