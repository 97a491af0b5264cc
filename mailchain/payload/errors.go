package payload

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeaders      = errors.New("payload: malformed headers")
	ErrUnknownEncoding       = errors.New("payload: unknown content encoding")
	ErrInvalidSignature      = errors.New("payload: content signature does not verify")
	ErrLengthMismatch        = errors.New("payload: content length mismatch")
	ErrChunkDecryptionFailed = errors.New("payload: chunk decryption failed")
	ErrHeaderDecryption      = errors.New("payload: header decryption failed")
	ErrTooManyChunks         = errors.New("payload: too many chunks")
	ErrCompressionFailed     = errors.New("payload: compression failed")
	ErrDecompressionFailed   = errors.New("payload: decompression failed")
)

// ChunkError reports the chunk that failed to decrypt. It matches
// ErrChunkDecryptionFailed with errors.Is.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("payload: chunk %d: decryption failed: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() []error { return []error{ErrChunkDecryptionFailed, e.Err} }
