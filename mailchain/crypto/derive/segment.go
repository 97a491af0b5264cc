package derive

import (
	"encoding/binary"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

const (
	domainIndex byte = 0x00
	domainLabel byte = 0x01
)

type segmentKind uint8

const (
	kindIndex segmentKind = iota + 1
	kindLabel
)

// Segment is one step of a derivation path.
type Segment struct {
	kind  segmentKind
	index uint32
	label string
}

// Index returns an integer segment.
func Index(i uint32) Segment { return Segment{kind: kindIndex, index: i} }

// Label returns a string segment.
func Label(s string) Segment { return Segment{kind: kindLabel, label: s} }

// ChainCode returns the 32-byte chain code the segment contributes.
func (s Segment) ChainCode() ([32]byte, error) {
	switch s.kind {
	case kindIndex:
		var buf [5]byte
		buf[0] = domainIndex
		binary.BigEndian.PutUint32(buf[1:], s.index)
		return blake2b.Sum256(buf[:]), nil
	case kindLabel:
		buf := make([]byte, 0, 1+len(s.label))
		buf = append(buf, domainLabel)
		buf = append(buf, s.label...)
		return blake2b.Sum256(buf), nil
	default:
		return [32]byte{}, ErrInvalidSegment
	}
}

func (s Segment) String() string {
	switch s.kind {
	case kindIndex:
		return strconv.FormatUint(uint64(s.index), 10)
	case kindLabel:
		return strconv.Quote(s.label)
	default:
		return "<invalid>"
	}
}
