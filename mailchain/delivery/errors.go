package delivery

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBody     = errors.New("delivery: message body is empty")
	ErrNoRecipients  = errors.New("delivery: no recipients")
	ErrMissingSender = errors.New("delivery: missing sender key")
	ErrMissingConfig = errors.New("delivery: missing dependency")
	ErrInvalidConfig = errors.New("delivery: invalid configuration")
)

// RecipientError reports a failure for one recipient.
type RecipientError struct {
	Address string
	Err     error
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("delivery: %s: %v", e.Address, e.Err)
}

func (e *RecipientError) Unwrap() error { return e.Err }
