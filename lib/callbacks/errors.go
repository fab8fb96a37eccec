package callbacks

import "errors"

var (
	// ErrCallbackIDInUse is returned by Register when the ID is already pending.
	// This is an allocation bug and is never recovered by overwriting the entry.
	ErrCallbackIDInUse = errors.New("callback id already in use")

	// ErrUnmatchedResponse is returned by Complete when no promise is pending for the ID
	ErrUnmatchedResponse = errors.New("no pending request for callback id")

	// ErrRequestCancelled is the failure delivered to promises removed by Cancel or Shutdown
	ErrRequestCancelled = errors.New("request cancelled")

	// ErrClosed is returned by registrations after Shutdown
	ErrClosed = errors.New("callback table closed")

	// ErrConnectionQueueFull is returned by RegisterConnection when too many handshakes are pending
	ErrConnectionQueueFull = errors.New("too many pending connection requests")
)
