package serializer

import (
	"fmt"

	"github.com/ValentinKolb/dMux/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewProtoSerializer creates a new serializer using the protobuf wire format.
// It encodes the message layout directly with protowire and needs no generated code.
func NewProtoSerializer() IRPCSerializer {
	return &protoSerializerImpl{}
}

// protoSerializerImpl implements IRPCSerializer using the protobuf wire format
type protoSerializerImpl struct {
}

// Field numbers. Request and ConnectionRequest use disjoint ranges and
// unknown fields are rejected for both, so the engine can tell them apart.
const (
	// Request
	fieldReqCallbackIdx protowire.Number = 1
	fieldReqType        protowire.Number = 2
	fieldReqArgs        protowire.Number = 3

	// ConnectionRequest
	fieldConnAddresses             protowire.Number = 10
	fieldConnTLSMode               protowire.Number = 11
	fieldConnClusterMode           protowire.Number = 12
	fieldConnResponseTimeout       protowire.Number = 13
	fieldConnClientCreationTimeout protowire.Number = 14
	fieldConnReadFrom              protowire.Number = 15
	fieldConnUsername              protowire.Number = 16
	fieldConnPassword              protowire.Number = 17
	fieldConnDatabaseID            protowire.Number = 18
	fieldConnClientName            protowire.Number = 19

	// AddressInfo
	fieldAddrHost protowire.Number = 1
	fieldAddrPort protowire.Number = 2

	// Response
	fieldRespCallbackIdx  protowire.Number = 1
	fieldRespRequestError protowire.Number = 2
	fieldRespClosingError protowire.Number = 3
	fieldRespValue        protowire.Number = 4
	fieldRespConstant     protowire.Number = 5

	// RequestError
	fieldErrType    protowire.Number = 1
	fieldErrMessage protowire.Number = 2
)

// constantOK is the only constant response
const constantOK = 0

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (p protoSerializerImpl) Name() string {
	return "proto"
}

func (p protoSerializerImpl) SerializeRequest(req *common.Request) ([]byte, error) {
	size := 12
	for _, arg := range req.Args {
		size += len(arg) + 6
	}
	b := make([]byte, 0, size)

	b = appendVarintField(b, fieldReqCallbackIdx, uint64(req.CallbackIdx))
	b = appendVarintField(b, fieldReqType, uint64(req.RequestType))
	for _, arg := range req.Args {
		b = protowire.AppendTag(b, fieldReqArgs, protowire.BytesType)
		b = protowire.AppendBytes(b, arg)
	}
	return b, nil
}

func (p protoSerializerImpl) DeserializeRequest(data []byte, req *common.Request) error {
	*req = common.Request{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldReqCallbackIdx && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			req.CallbackIdx = uint32(v)
			return n, nil
		case num == fieldReqType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			req.RequestType = common.RequestType(v)
			return n, nil
		case num == fieldReqArgs && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				req.Args = append(req.Args, append([]byte{}, v...))
			}
			return n, nil
		}
		return 0, fmt.Errorf("unexpected request field %d (wire type %d)", num, typ)
	})
}

func (p protoSerializerImpl) SerializeConnectionRequest(req *common.ConnectionRequest) ([]byte, error) {
	b := make([]byte, 0, 64)

	for _, addr := range req.Addresses {
		var nested []byte
		nested = appendStringField(nested, fieldAddrHost, addr.Host)
		nested = appendVarintField(nested, fieldAddrPort, uint64(addr.Port))
		b = protowire.AppendTag(b, fieldConnAddresses, protowire.BytesType)
		b = protowire.AppendBytes(b, nested)
	}
	b = appendVarintField(b, fieldConnTLSMode, uint64(req.TLSMode))
	b = appendVarintField(b, fieldConnClusterMode, protowire.EncodeBool(req.ClusterModeEnabled))
	b = appendVarintField(b, fieldConnResponseTimeout, uint64(req.ResponseTimeout))
	b = appendVarintField(b, fieldConnClientCreationTimeout, uint64(req.ClientCreationTimeout))
	b = appendVarintField(b, fieldConnReadFrom, uint64(req.ReadFrom))
	b = appendStringField(b, fieldConnUsername, req.Username)
	b = appendStringField(b, fieldConnPassword, req.Password)
	b = appendVarintField(b, fieldConnDatabaseID, uint64(req.DatabaseID))
	b = appendStringField(b, fieldConnClientName, req.ClientName)
	return b, nil
}

func (p protoSerializerImpl) DeserializeConnectionRequest(data []byte, req *common.ConnectionRequest) error {
	*req = common.ConnectionRequest{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			switch num {
			case fieldConnAddresses:
				addr, err := decodeAddress(v)
				if err != nil {
					return 0, err
				}
				req.Addresses = append(req.Addresses, addr)
			case fieldConnUsername:
				req.Username = string(v)
			case fieldConnPassword:
				req.Password = string(v)
			case fieldConnClientName:
				req.ClientName = string(v)
			default:
				return 0, fmt.Errorf("unexpected connection request field %d", num)
			}
			return n, nil
		}

		if typ != protowire.VarintType {
			return 0, fmt.Errorf("unexpected connection request field %d (wire type %d)", num, typ)
		}
		v, n := protowire.ConsumeVarint(b)
		switch num {
		case fieldConnTLSMode:
			req.TLSMode = common.TLSMode(v)
		case fieldConnClusterMode:
			req.ClusterModeEnabled = protowire.DecodeBool(v)
		case fieldConnResponseTimeout:
			req.ResponseTimeout = uint32(v)
		case fieldConnClientCreationTimeout:
			req.ClientCreationTimeout = uint32(v)
		case fieldConnReadFrom:
			req.ReadFrom = common.ReadFromStrategy(v)
		case fieldConnDatabaseID:
			req.DatabaseID = uint32(v)
		default:
			return 0, fmt.Errorf("unexpected connection request field %d", num)
		}
		return n, nil
	})
}

func (p protoSerializerImpl) SerializeResponse(resp *common.Response) ([]byte, error) {
	b := make([]byte, 0, 8+len(resp.Value)+len(resp.ClosingError))
	b = appendVarintField(b, fieldRespCallbackIdx, uint64(resp.CallbackIdx))

	switch resp.Kind {
	case common.ResultNone:
	case common.ResultValue:
		b = protowire.AppendTag(b, fieldRespValue, protowire.BytesType)
		b = protowire.AppendBytes(b, resp.Value)
	case common.ResultOK:
		b = protowire.AppendTag(b, fieldRespConstant, protowire.VarintType)
		b = protowire.AppendVarint(b, constantOK)
	case common.ResultRequestError:
		if resp.RequestError == nil {
			return nil, fmt.Errorf("response %d: request error without details", resp.CallbackIdx)
		}
		var nested []byte
		nested = appendVarintField(nested, fieldErrType, uint64(resp.RequestError.Type))
		nested = appendStringField(nested, fieldErrMessage, resp.RequestError.Message)
		b = protowire.AppendTag(b, fieldRespRequestError, protowire.BytesType)
		b = protowire.AppendBytes(b, nested)
	case common.ResultClosingError:
		b = protowire.AppendTag(b, fieldRespClosingError, protowire.BytesType)
		b = protowire.AppendString(b, resp.ClosingError)
	default:
		return nil, fmt.Errorf("response %d: unknown result kind %d", resp.CallbackIdx, resp.Kind)
	}
	return b, nil
}

func (p protoSerializerImpl) DeserializeResponse(data []byte, resp *common.Response) error {
	*resp = common.Response{}
	results := 0
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldRespCallbackIdx && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			resp.CallbackIdx = uint32(v)
			return n, nil
		case num == fieldRespValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			resp.Kind = common.ResultValue
			resp.Value = append([]byte{}, v...)
			results++
			return n, nil
		case num == fieldRespConstant && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && v != constantOK {
				return 0, fmt.Errorf("unknown constant response %d", v)
			}
			resp.Kind = common.ResultOK
			results++
			return n, nil
		case num == fieldRespRequestError && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			reqErr, err := decodeRequestError(v)
			if err != nil {
				return 0, err
			}
			resp.Kind = common.ResultRequestError
			resp.RequestError = reqErr
			results++
			return n, nil
		case num == fieldRespClosingError && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			resp.Kind = common.ResultClosingError
			resp.ClosingError = v
			results++
			return n, nil
		}
		// skip unknown fields
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return err
	}
	if results > 1 {
		return fmt.Errorf("response %d carries %d results", resp.CallbackIdx, results)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// consumeFields walks all fields of a message. The callback consumes the value
// of a single field and returns the number of bytes read (negative on error).
func consumeFields(data []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		m, err := field(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}

func decodeAddress(data []byte) (common.AddressInfo, error) {
	var addr common.AddressInfo
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldAddrHost && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			addr.Host = v
			return n, nil
		case num == fieldAddrPort && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			addr.Port = uint32(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return addr, err
}

func decodeRequestError(data []byte) (*common.RequestError, error) {
	reqErr := &common.RequestError{}
	err := consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldErrType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			reqErr.Type = common.RequestErrorType(v)
			return n, nil
		case num == fieldErrMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			reqErr.Message = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return reqErr, err
}

// appendVarintField appends a varint field, omitting zero values like proto3 does
func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendStringField appends a string field, omitting empty strings
func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}
