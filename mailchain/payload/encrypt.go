package payload

import (
	"fmt"
	"io"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/crypto/derive"
	"github.com/TheusHen/mailchain/mailchain/keys"
)

// EncryptedPayload is the sealed header block and the sealed chunks in
// content order.
type EncryptedPayload struct {
	Headers []byte
	Chunks  [][]byte
}

// Options tune Encrypt and Decrypt.
type Options struct {
	ChunkSize int       // DefaultChunkSize when zero
	Workers   int       // runtime.GOMAXPROCS(0) when zero
	Rand      io.Reader // crypto/rand when nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Encrypt seals p under keys derived from root. The header block is always
// sealed with NaCl secretbox so a recipient can read Content-Encryption
// before touching the chunks.
func Encrypt(p *Payload, root *derive.RootKey, opts Options) (*EncryptedPayload, error) {
	rnd := crypto.Reader(opts.Rand)
	block, err := p.Headers.Marshal()
	if err != nil {
		return nil, err
	}
	cipher, err := crypto.CipherByName(p.Headers.ContentEncryption, rnd)
	if err != nil {
		return nil, err
	}
	if len(p.Content) != p.Headers.ContentLength {
		return nil, fmt.Errorf("%w: have %d bytes, header says %d", ErrLengthMismatch, len(p.Content), p.Headers.ContentLength)
	}

	headersKey, err := root.HeadersKey()
	if err != nil {
		return nil, err
	}
	defer headersKey.Zero()
	sealedHeaders, err := sealWith(headersKey, crypto.NaClSecretKey{Rand: rnd}, block)
	if err != nil {
		return nil, err
	}

	chunks := NewChunker(opts.ChunkSize).Split(p.Content)
	if uint64(len(chunks)) > math.MaxUint32 {
		return nil, ErrTooManyChunks
	}
	content, err := root.ContentKey()
	if err != nil {
		return nil, err
	}
	defer content.Zero()

	sealed := make([][]byte, len(chunks))
	var g errgroup.Group
	g.SetLimit(opts.workers())
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			key, err := content.Derive(derive.Index(uint32(c.Index)))
			if err != nil {
				return err
			}
			defer key.Zero()
			ct, err := sealWith(key.PrivateKey(), cipher, c.Data)
			if err != nil {
				return fmt.Errorf("payload: chunk %d: %w", c.Index, err)
			}
			sealed[c.Index] = ct
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &EncryptedPayload{Headers: sealedHeaders, Chunks: sealed}, nil
}

// Decrypt reverses Encrypt. Any chunk that fails authentication rejects the
// whole payload with a *ChunkError.
func Decrypt(ep *EncryptedPayload, root *derive.RootKey, opts Options) (*Payload, error) {
	headersKey, err := root.HeadersKey()
	if err != nil {
		return nil, err
	}
	defer headersKey.Zero()
	block, err := openWith(headersKey, crypto.NaClSecretKey{}, ep.Headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderDecryption, err)
	}
	h, err := ParseHeaders(block)
	if err != nil {
		return nil, err
	}
	cipher, err := crypto.CipherByName(h.ContentEncryption, nil)
	if err != nil {
		return nil, err
	}

	plain, err := DecryptChunks(ep.Chunks, root, cipher, opts)
	if err != nil {
		return nil, err
	}
	p := &Payload{Headers: h, Content: Join(plain)}
	if len(p.Content) != h.ContentLength {
		return nil, fmt.Errorf("%w: have %d bytes, header says %d", ErrLengthMismatch, len(p.Content), h.ContentLength)
	}
	return p, nil
}

// DecryptHeaders opens only the header block.
func DecryptHeaders(sealed []byte, root *derive.RootKey) (Headers, error) {
	headersKey, err := root.HeadersKey()
	if err != nil {
		return Headers{}, err
	}
	defer headersKey.Zero()
	block, err := openWith(headersKey, crypto.NaClSecretKey{}, sealed)
	if err != nil {
		return Headers{}, fmt.Errorf("%w: %v", ErrHeaderDecryption, err)
	}
	return ParseHeaders(block)
}

// DecryptChunks opens sealed chunks concurrently and returns them in order.
func DecryptChunks(sealed [][]byte, root *derive.RootKey, cipher crypto.Cipher, opts Options) ([][]byte, error) {
	if uint64(len(sealed)) > math.MaxUint32 {
		return nil, ErrTooManyChunks
	}
	content, err := root.ContentKey()
	if err != nil {
		return nil, err
	}
	defer content.Zero()

	plain := make([][]byte, len(sealed))
	var g errgroup.Group
	g.SetLimit(opts.workers())
	for i, ct := range sealed {
		i, ct := i, ct
		g.Go(func() error {
			pt, err := DecryptChunk(content, cipher, i, ct)
			if err != nil {
				return err
			}
			plain[i] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plain, nil
}

// DecryptChunk opens chunk i with its key derived from content, the
// derive(root, "content") key.
func DecryptChunk(content *derive.ExtendedPrivateKey, cipher crypto.Cipher, i int, sealed []byte) ([]byte, error) {
	if i < 0 || uint64(i) > math.MaxUint32 {
		return nil, &ChunkError{Index: i, Err: ErrTooManyChunks}
	}
	key, err := content.Derive(derive.Index(uint32(i)))
	if err != nil {
		return nil, &ChunkError{Index: i, Err: err}
	}
	defer key.Zero()
	pt, err := openWith(key.PrivateKey(), cipher, sealed)
	if err != nil {
		return nil, &ChunkError{Index: i, Err: err}
	}
	return pt, nil
}

func sealWith(k keys.PrivateKey, c crypto.Cipher, plaintext []byte) ([]byte, error) {
	enc, err := crypto.NewKeyEncrypter(k, c)
	if err != nil {
		return nil, err
	}
	defer enc.Zero()
	return enc.Encrypt(plaintext)
}

func openWith(k keys.PrivateKey, c crypto.Cipher, ciphertext []byte) ([]byte, error) {
	enc, err := crypto.NewKeyEncrypter(k, c)
	if err != nil {
		return nil, err
	}
	defer enc.Zero()
	return enc.Decrypt(ciphertext)
}
