package keys

import "errors"

var (
	ErrInvalidKeyMaterial = errors.New("keys: invalid key material")
	ErrUnsupportedCurve   = errors.New("keys: unsupported curve")
	ErrUnderflow          = errors.New("keys: encoded key too short")
	ErrInvalidSignature   = errors.New("keys: malformed signature")
)
