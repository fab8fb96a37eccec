package client

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dMux/rpc/common"
)

// RequestError is a failure the engine reported for a single request
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string { return e.Msg }

// ExecAbortError is reported when the engine discarded a transaction
type ExecAbortError struct {
	Msg string
}

func (e *ExecAbortError) Error() string { return e.Msg }

// TimeoutError is returned when no response arrived within the request timeout,
// or when the engine itself reported a timeout
type TimeoutError struct {
	Msg string
}

func (e *TimeoutError) Error() string { return e.Msg }

// DisconnectError is returned when the connection to the engine was lost
type DisconnectError struct {
	Msg string
	Err error
}

func (e *DisconnectError) Error() string { return e.Msg }

func (e *DisconnectError) Unwrap() error { return e.Err }

// ClosingError is returned once the client is closed, either by Close or
// because the engine announced that it is closing. The client is unusable afterwards.
type ClosingError struct {
	Msg string
	Err error
}

func (e *ClosingError) Error() string { return e.Msg }

func (e *ClosingError) Unwrap() error { return e.Err }

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// fromRequestError maps an engine reported error onto the client error types
func fromRequestError(e *common.RequestError) error {
	if e == nil {
		return &RequestError{Msg: "engine reported an error without details"}
	}
	switch e.Type {
	case common.ErrTExecAbort:
		return &ExecAbortError{Msg: e.Message}
	case common.ErrTTimeout:
		return &TimeoutError{Msg: e.Message}
	case common.ErrTDisconnect:
		return &DisconnectError{Msg: e.Message}
	default:
		return &RequestError{Msg: e.Message}
	}
}

// fromTransportError maps a failed promise onto the client error types.
// A closed channel wins over a lost connection, other errors are returned unchanged.
func fromTransportError(err error) error {
	switch {
	case errors.Is(err, common.ErrChannelClosed):
		return &ClosingError{Msg: fmt.Sprintf("client closed: %v", err), Err: err}
	case errors.Is(err, common.ErrConnectionLost):
		return &DisconnectError{Msg: fmt.Sprintf("disconnected: %v", err), Err: err}
	default:
		return err
	}
}
