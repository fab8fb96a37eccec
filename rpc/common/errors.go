package common

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelClosed is returned for requests issued on (or pending in) a closed channel
	ErrChannelClosed = errors.New("channel closed")

	// ErrConnectionLost is the close cause when the stream ends unexpectedly
	ErrConnectionLost = errors.New("connection lost")

	// ErrMalformedFrame marks inbound bytes that cannot be framed or decoded.
	// The stream cannot be resynchronized afterwards.
	ErrMalformedFrame = errors.New("malformed frame")
)

// WriteError is delivered to a request whose bytes could not be written to the channel
type WriteError struct {
	CallbackIdx uint32
	Err         error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write request %d: %v", e.CallbackIdx, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
