package erasure

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

var (
	ErrTooManyLost   = errors.New("erasure: too many shards lost, cannot recover")
	ErrInvalidConfig = errors.New("erasure: invalid data/parity configuration")
	ErrInvalidSize   = errors.New("erasure: payload size out of range")
)

// Codec provides Reed-Solomon encoding/decoding.
type Codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewCodec creates a new erasure codec.
// dataShards: number of data shards
// parityShards: number of parity shards (can lose up to this many)
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 || parityShards <= 0 {
		return nil, ErrInvalidConfig
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return &Codec{
		enc:          enc,
		dataShards:   dataShards,
		parityShards: parityShards,
	}, nil
}

func (c *Codec) DataShards() int   { return c.dataShards }
func (c *Codec) ParityShards() int { return c.parityShards }

// TotalShards returns the total number of shards (data + parity).
func (c *Codec) TotalShards() int { return c.dataShards + c.parityShards }

// EncodeData splits data into data shards and computes parity.
// Returns all shards (data + parity).
func (c *Codec) EncodeData(data []byte) ([][]byte, error) {
	shards, err := c.enc.Split(data)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// ReconstructData rebuilds missing data shards in place. Missing shards are nil.
func (c *Codec) ReconstructData(shards [][]byte) error {
	err := c.enc.ReconstructData(shards)
	if errors.Is(err, reedsolomon.ErrTooFewShards) {
		return ErrTooManyLost
	}
	return err
}

// Join joins data shards back into the original data.
// outSize is the original data size (before padding).
func (c *Codec) Join(shards [][]byte, outSize int) ([]byte, error) {
	if outSize < 0 || outSize > c.Capacity(shards) {
		return nil, fmt.Errorf("%w: size %d exceeds shard capacity %d", ErrInvalidSize, outSize, c.Capacity(shards))
	}
	data := make([]byte, 0, outSize)
	for i := 0; i < c.dataShards && len(data) < outSize; i++ {
		remaining := outSize - len(data)
		if remaining >= len(shards[i]) {
			data = append(data, shards[i]...)
		} else {
			data = append(data, shards[i][:remaining]...)
		}
	}
	if len(data) != outSize {
		return nil, ErrTooManyLost
	}
	return data, nil
}

// Capacity is the number of payload bytes the data shards can hold.
func (c *Codec) Capacity(shards [][]byte) int {
	n := 0
	for i := 0; i < c.dataShards && i < len(shards); i++ {
		n += len(shards[i])
	}
	return n
}

// Overhead returns the storage overhead ratio (e.g., 1.4 for 10+4 config).
func (c *Codec) Overhead() float64 {
	return float64(c.TotalShards()) / float64(c.dataShards)
}
