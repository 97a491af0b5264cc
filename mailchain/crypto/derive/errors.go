package derive

import "errors"

var (
	ErrNotDerivable   = errors.New("derive: curve does not support hardened derivation")
	ErrInvalidSegment = errors.New("derive: invalid segment")
	ErrKeyZeroed      = errors.New("derive: key has been zeroed")
)
