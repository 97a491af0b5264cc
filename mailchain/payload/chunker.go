package payload

// DefaultChunkSize is the default maximum chunk size (1 MiB).
const DefaultChunkSize = 1 << 20

// Chunker splits content into fixed-size chunks.
type Chunker struct {
	chunkSize int
}

// NewChunker creates a new chunker with the specified chunk size.
func NewChunker(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{chunkSize: chunkSize}
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Chunk is one content slice. Data aliases the input to Split.
type Chunk struct {
	Index int
	Data  []byte
}

// Split splits data into sequential chunks of at most ChunkSize bytes.
// Empty data yields no chunks.
func (c *Chunker) Split(data []byte) []Chunk {
	if len(data) == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, (len(data)+c.chunkSize-1)/c.chunkSize)
	for i := 0; i < len(data); i += c.chunkSize {
		end := min(i+c.chunkSize, len(data))
		chunks = append(chunks, Chunk{Index: len(chunks), Data: data[i:end:end]})
	}
	return chunks
}

// Join concatenates chunk data in slice order.
func Join(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
