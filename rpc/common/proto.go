package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConnectionIdx is the callback ID reserved for connection responses
const ConnectionIdx uint32 = 0

// --------------------------------------------------------------------------
// Request Structures
// --------------------------------------------------------------------------

// Request is a single command sent to the engine.
// CallbackIdx is stamped by the channel handler right before serialization.
type Request struct {
	CallbackIdx uint32      `json:"callback_idx"`
	RequestType RequestType `json:"request_type"`
	Args        [][]byte    `json:"args,omitempty"`
}

// AddressInfo is a single engine address announced in the connection request
type AddressInfo struct {
	Host string `json:"host" yaml:"host"`
	Port uint32 `json:"port" yaml:"port"`
}

// ConnectionRequest is the handshake payload. It has no callback ID field;
// the engine answers it with a response carrying the reserved ID 0.
type ConnectionRequest struct {
	Addresses             []AddressInfo    `json:"addresses,omitempty"`
	TLSMode               TLSMode          `json:"tls_mode,omitempty"`
	ClusterModeEnabled    bool             `json:"cluster_mode_enabled,omitempty"`
	ResponseTimeout       uint32           `json:"response_timeout,omitempty"`        // milliseconds
	ClientCreationTimeout uint32           `json:"client_creation_timeout,omitempty"` // milliseconds
	ReadFrom              ReadFromStrategy `json:"read_from,omitempty"`
	Username              string           `json:"username,omitempty"`
	Password              string           `json:"password,omitempty"`
	DatabaseID            uint32           `json:"database_id,omitempty"`
	ClientName            string           `json:"client_name,omitempty"`
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// RequestError is an engine reported failure of a single request
type RequestError struct {
	Type    RequestErrorType `json:"type"`
	Message string           `json:"message"`
}

// Response is a single message received from the engine.
// Kind selects which of the result fields is meaningful.
type Response struct {
	CallbackIdx  uint32        `json:"callback_idx"`
	Kind         ResultKind    `json:"kind"`
	Value        []byte        `json:"value"`
	RequestError *RequestError `json:"request_error,omitempty"`
	ClosingError string        `json:"closing_error,omitempty"`
}

// NewValueResponse creates a response carrying a value
func NewValueResponse(callbackIdx uint32, value []byte) *Response {
	if value == nil {
		value = []byte{}
	}
	return &Response{CallbackIdx: callbackIdx, Kind: ResultValue, Value: value}
}

// NewNoneResponse creates a response without a value (e.g. GET on a missing key)
func NewNoneResponse(callbackIdx uint32) *Response {
	return &Response{CallbackIdx: callbackIdx, Kind: ResultNone}
}

// NewOKResponse creates a constant OK response
func NewOKResponse(callbackIdx uint32) *Response {
	return &Response{CallbackIdx: callbackIdx, Kind: ResultOK}
}

// NewRequestErrorResponse creates a response reporting a failed request
func NewRequestErrorResponse(callbackIdx uint32, errType RequestErrorType, msg string) *Response {
	return &Response{
		CallbackIdx:  callbackIdx,
		Kind:         ResultRequestError,
		RequestError: &RequestError{Type: errType, Message: msg},
	}
}

// NewClosingErrorResponse creates a response telling the client the engine closes the connection
func NewClosingErrorResponse(callbackIdx uint32, msg string) *Response {
	return &Response{CallbackIdx: callbackIdx, Kind: ResultClosingError, ClosingError: msg}
}

// IsConnectionResponse reports whether the response answers a connection request
func (r *Response) IsConnectionResponse() bool {
	return r.CallbackIdx == 0
}

func (r *Response) String() string {
	switch r.Kind {
	case ResultValue:
		return fmt.Sprintf("#%d value(%d bytes)", r.CallbackIdx, len(r.Value))
	case ResultRequestError:
		if r.RequestError != nil {
			return fmt.Sprintf("#%d %s: %s", r.CallbackIdx, r.RequestError.Type, r.RequestError.Message)
		}
	case ResultClosingError:
		return fmt.Sprintf("#%d closing: %s", r.CallbackIdx, r.ClosingError)
	}
	return fmt.Sprintf("#%d %s", r.CallbackIdx, r.Kind)
}

// --------------------------------------------------------------------------
// Request Type Definition
// --------------------------------------------------------------------------

// RequestType defines the command carried by a Request
type RequestType uint32

const (
	ReqTUnspecified   RequestType = iota
	ReqTCustomCommand             // Args[0] is the command name
	ReqTGet                       // Get a value by key
	ReqTSet                       // Set a key-value pair
	ReqTDel                       // Delete keys
	ReqTPing                      // Ping, optional message
	ReqTEcho                      // Echo the first argument
	ReqTInfo                      // Engine information
)

var requestTypeNames = map[RequestType]string{
	ReqTUnspecified:   "unspecified",
	ReqTCustomCommand: "custom",
	ReqTGet:           "get",
	ReqTSet:           "set",
	ReqTDel:           "del",
	ReqTPing:          "ping",
	ReqTEcho:          "echo",
	ReqTInfo:          "info",
}

// String returns the string representation of a RequestType
func (t RequestType) String() string {
	if name, ok := requestTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseRequestType converts a (case insensitive) command name into a RequestType.
// Names that are not built in map to ReqTCustomCommand.
func ParseRequestType(name string) RequestType {
	lower := strings.ToLower(name)
	for t, n := range requestTypeNames {
		if n == lower && t != ReqTUnspecified && t != ReqTCustomCommand {
			return t
		}
	}
	return ReqTCustomCommand
}

// MarshalJSON serializes the RequestType as its name
func (t RequestType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a RequestType from its name
func (t *RequestType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for rt, name := range requestTypeNames {
		if name == s {
			*t = rt
			return nil
		}
	}
	return fmt.Errorf("unknown request type: %s", s)
}

// --------------------------------------------------------------------------
// Result Kinds and Enums
// --------------------------------------------------------------------------

// ResultKind is the variant of a Response
type ResultKind uint8

const (
	ResultNone         ResultKind = iota // well formed response without a value
	ResultValue                          // Value is set
	ResultOK                             // constant OK
	ResultRequestError                   // RequestError is set
	ResultClosingError                   // ClosingError is set
)

func (k ResultKind) String() string {
	switch k {
	case ResultNone:
		return "none"
	case ResultValue:
		return "value"
	case ResultOK:
		return "ok"
	case ResultRequestError:
		return "request error"
	case ResultClosingError:
		return "closing error"
	default:
		return "unknown"
	}
}

// RequestErrorType classifies engine reported request failures
type RequestErrorType uint32

const (
	ErrTUnspecified RequestErrorType = iota
	ErrTExecAbort
	ErrTTimeout
	ErrTDisconnect
)

func (t RequestErrorType) String() string {
	switch t {
	case ErrTExecAbort:
		return "exec abort"
	case ErrTTimeout:
		return "timeout"
	case ErrTDisconnect:
		return "disconnect"
	default:
		return "request error"
	}
}

// TLSMode of the engine's upstream connections
type TLSMode uint32

const (
	TLSModeNone TLSMode = iota
	TLSModeSecure
	TLSModeInsecure
)

// ReadFromStrategy selects where the engine routes reads
type ReadFromStrategy uint32

const (
	ReadFromPrimary ReadFromStrategy = iota
	ReadFromPreferReplica
)
