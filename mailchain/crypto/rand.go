package crypto

import (
	"crypto/rand"
	"io"
	"sync"
)

// callerReads guards every caller-supplied randomness source. Wrappers made
// by separate calls share it, so one reader passed to concurrent encryptions
// never hands the same bytes to two of them.
var callerReads sync.Mutex

type lockedReader struct {
	r io.Reader
}

func (l lockedReader) Read(p []byte) (int, error) {
	callerReads.Lock()
	defer callerReads.Unlock()
	return l.r.Read(p)
}

// Reader returns a randomness source that is safe for concurrent use.
// nil selects crypto/rand. Any other reader is serialised with every other
// reader this package wraps, whether or not the caller wrapped it first.
func Reader(r io.Reader) io.Reader {
	switch r.(type) {
	case nil:
		return rand.Reader
	case lockedReader:
		return r
	}
	if r == rand.Reader {
		return r
	}
	return lockedReader{r: r}
}
