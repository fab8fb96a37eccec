package serializer

import (
	"fmt"
	"sort"

	"github.com/ValentinKolb/dMux/rpc/common"
)

// IRPCSerializer is the interface for all payload serializers.
// Deserialize methods overwrite every field of the target.
type IRPCSerializer interface {
	// Name returns the registry name of the serializer (e.g. "proto")
	Name() string

	// SerializeRequest encodes a command request including its callback index
	SerializeRequest(req *common.Request) ([]byte, error)
	// DeserializeRequest decodes a command request
	DeserializeRequest(b []byte, req *common.Request) error

	// SerializeConnectionRequest encodes the connection handshake
	SerializeConnectionRequest(req *common.ConnectionRequest) ([]byte, error)
	// DeserializeConnectionRequest decodes the connection handshake
	DeserializeConnectionRequest(b []byte, req *common.ConnectionRequest) error

	// SerializeResponse encodes a response
	SerializeResponse(resp *common.Response) ([]byte, error)
	// DeserializeResponse decodes a response
	DeserializeResponse(b []byte, resp *common.Response) error
}

var factories = map[string]func() IRPCSerializer{
	"proto": NewProtoSerializer,
	"json":  NewJSONSerializer,
	"gob":   NewGOBSerializer,
}

// NewSerializer returns the serializer registered under name
func NewSerializer(name string) (IRPCSerializer, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown serializer %q, must be one of %v", name, Names())
	}
	return factory(), nil
}

// Names returns the sorted names of all registered serializers
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeInbound decodes an engine side frame which holds either a command
// request or a connection request. Exactly one of the results is non nil on success.
func DecodeInbound(s IRPCSerializer, b []byte) (*common.Request, *common.ConnectionRequest, error) {
	var req common.Request
	if err := s.DeserializeRequest(b, &req); err == nil && req.RequestType != common.ReqTUnspecified {
		return &req, nil, nil
	}

	var connReq common.ConnectionRequest
	if err := s.DeserializeConnectionRequest(b, &connReq); err != nil {
		return nil, nil, fmt.Errorf("frame is neither a request nor a connection request: %w", err)
	}
	return nil, &connReq, nil
}
