package protocol

// FrameType is the one-byte tag that opens every frame.
type FrameType uint8

const (
	FrameHeader     FrameType = 1
	FrameChunk      FrameType = 2
	FrameFinalChunk FrameType = 3

	// Delivery transport frames. They never appear in a payload stream.
	FrameDeliver FrameType = 16
	FrameAck     FrameType = 17
	FrameError   FrameType = 18
)

// Valid reports whether t is a known frame type.
func (t FrameType) Valid() bool {
	switch t {
	case FrameHeader, FrameChunk, FrameFinalChunk, FrameDeliver, FrameAck, FrameError:
		return true
	default:
		return false
	}
}

func (t FrameType) String() string {
	switch t {
	case FrameHeader:
		return "HEADER"
	case FrameChunk:
		return "CHUNK"
	case FrameFinalChunk:
		return "FINAL_CHUNK"
	case FrameDeliver:
		return "DELIVER"
	case FrameAck:
		return "ACK"
	case FrameError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
