package serializer

import (
	"bytes"
	"encoding/json"

	"github.com/ValentinKolb/dMux/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string {
	return "json"
}

func (j jsonSerializerImpl) SerializeRequest(req *common.Request) ([]byte, error) {
	return json.Marshal(req)
}

func (j jsonSerializerImpl) DeserializeRequest(b []byte, req *common.Request) error {
	*req = common.Request{}
	return strictUnmarshal(b, req)
}

func (j jsonSerializerImpl) SerializeConnectionRequest(req *common.ConnectionRequest) ([]byte, error) {
	return json.Marshal(req)
}

func (j jsonSerializerImpl) DeserializeConnectionRequest(b []byte, req *common.ConnectionRequest) error {
	*req = common.ConnectionRequest{}
	return strictUnmarshal(b, req)
}

func (j jsonSerializerImpl) SerializeResponse(resp *common.Response) ([]byte, error) {
	return json.Marshal(resp)
}

func (j jsonSerializerImpl) DeserializeResponse(b []byte, resp *common.Response) error {
	*resp = common.Response{}
	return json.Unmarshal(b, resp)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// strictUnmarshal rejects unknown fields
func strictUnmarshal(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
