package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared across adapters and usecases. The API layer maps these
// to HTTP statuses; everything else wraps them with %w.
var (
	// ErrConfigurationMissing means a vendor credential is absent and stub
	// mode is not active.
	ErrConfigurationMissing = errors.New("service is not configured")

	// ErrUpstreamTimeout is retryable: a remote call exceeded its deadline
	// and was aborted.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamEmpty means the remote answered but returned no usable
	// content.
	ErrUpstreamEmpty = errors.New("upstream returned empty content")

	// ErrUpstreamMalformed means the remote returned content that could not
	// be parsed into the expected shape.
	ErrUpstreamMalformed = errors.New("upstream returned malformed content")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ProtocolError reports a malformed frame or a socket-level failure in the
// vendor transcription protocol.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("protocol error during %s", e.Op)
	}
	return fmt.Sprintf("protocol error during %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
