package serializer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/ValentinKolb/dMux/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":  NewJSONSerializer,
	"GOB":   NewGOBSerializer,
	"Proto": NewProtoSerializer,
}

func testRequests() []common.Request {
	return []common.Request{
		{CallbackIdx: 1, RequestType: common.ReqTPing},
		{CallbackIdx: 2, RequestType: common.ReqTGet, Args: [][]byte{[]byte("key")}},
		{CallbackIdx: 3, RequestType: common.ReqTSet, Args: [][]byte{[]byte("key"), []byte("value")}},
		{CallbackIdx: 4294967295, RequestType: common.ReqTCustomCommand, Args: [][]byte{[]byte("SLEEP"), []byte("10")}},
		{CallbackIdx: 7, RequestType: common.ReqTEcho, Args: [][]byte{make([]byte, 4096)}},
	}
}

func testConnectionRequests() []common.ConnectionRequest {
	return []common.ConnectionRequest{
		{},
		{Addresses: []common.AddressInfo{{Host: "/tmp/dmux.sock"}}},
		{
			Addresses:             []common.AddressInfo{{Host: "localhost", Port: 6379}, {Host: "10.0.0.2", Port: 7000}},
			TLSMode:               common.TLSModeSecure,
			ClusterModeEnabled:    true,
			ResponseTimeout:       250,
			ClientCreationTimeout: 1000,
			ReadFrom:              common.ReadFromPreferReplica,
			Username:              "user",
			Password:              "secret",
			DatabaseID:            2,
			ClientName:            "test-client",
		},
	}
}

func testResponses() []*common.Response {
	return []*common.Response{
		common.NewOKResponse(0),
		common.NewOKResponse(12),
		common.NewNoneResponse(3),
		common.NewValueResponse(4, []byte("value")),
		common.NewValueResponse(5, make([]byte, 16*1024)),
		common.NewRequestErrorResponse(6, common.ErrTExecAbort, "transaction aborted"),
		common.NewRequestErrorResponse(0, common.ErrTUnspecified, "invalid password"),
		common.NewClosingErrorResponse(7, "engine shutting down"),
	}
}

func TestRequestRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, req := range testRequests() {
				data, err := serializer.SerializeRequest(&req)
				if err != nil {
					t.Fatalf("Failed to serialize request %d: %v", i, err)
				}

				var result common.Request
				if err := serializer.DeserializeRequest(data, &result); err != nil {
					t.Fatalf("Failed to deserialize request %d: %v", i, err)
				}

				if !reflect.DeepEqual(req, result) {
					t.Errorf("Request %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, req, result)
				}
			}
		})
	}
}

func TestConnectionRequestRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, req := range testConnectionRequests() {
				data, err := serializer.SerializeConnectionRequest(&req)
				if err != nil {
					t.Fatalf("Failed to serialize connection request %d: %v", i, err)
				}

				var result common.ConnectionRequest
				if err := serializer.DeserializeConnectionRequest(data, &result); err != nil {
					t.Fatalf("Failed to deserialize connection request %d: %v", i, err)
				}

				if !reflect.DeepEqual(req, result) {
					t.Errorf("Connection request %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, req, result)
				}
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, resp := range testResponses() {
				data, err := serializer.SerializeResponse(resp)
				if err != nil {
					t.Fatalf("Failed to serialize response %d: %v", i, err)
				}

				result := &common.Response{}
				if err := serializer.DeserializeResponse(data, result); err != nil {
					t.Fatalf("Failed to deserialize response %d: %v", i, err)
				}

				if result.CallbackIdx != resp.CallbackIdx {
					t.Errorf("Response %d: expected callback index %d, got %d", i, resp.CallbackIdx, result.CallbackIdx)
				}
				if result.Kind != resp.Kind {
					t.Errorf("Response %d: expected kind %s, got %s", i, resp.Kind, result.Kind)
				}
				if !bytes.Equal(result.Value, resp.Value) {
					t.Errorf("Response %d: value mismatch", i)
				}
				if !reflect.DeepEqual(result.RequestError, resp.RequestError) {
					t.Errorf("Response %d: expected request error %+v, got %+v", i, resp.RequestError, result.RequestError)
				}
				if result.ClosingError != resp.ClosingError {
					t.Errorf("Response %d: expected closing error %q, got %q", i, resp.ClosingError, result.ClosingError)
				}
			}
		})
	}
}

// TestDeserializeResetsTarget ensures that reused targets don't leak fields of a previous message
func TestDeserializeResetsTarget(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			first, _ := serializer.SerializeResponse(common.NewValueResponse(1, []byte("old")))
			second, _ := serializer.SerializeResponse(common.NewOKResponse(2))

			resp := &common.Response{}
			if err := serializer.DeserializeResponse(first, resp); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if err := serializer.DeserializeResponse(second, resp); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if resp.Kind != common.ResultOK || resp.Value != nil || resp.CallbackIdx != 2 {
				t.Errorf("Stale fields after reuse: %+v", resp)
			}
		})
	}
}

func TestDecodeInbound(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, req := range testRequests() {
				data, _ := serializer.SerializeRequest(&req)
				got, conn, err := DecodeInbound(serializer, data)
				if err != nil {
					t.Fatalf("Request %d: unexpected error %v", i, err)
				}
				if got == nil || conn != nil {
					t.Fatalf("Request %d: decoded as connection request", i)
				}
				if got.CallbackIdx != req.CallbackIdx || got.RequestType != req.RequestType {
					t.Errorf("Request %d: expected %+v, got %+v", i, req, got)
				}
			}

			for i, connReq := range testConnectionRequests() {
				data, _ := serializer.SerializeConnectionRequest(&connReq)
				got, conn, err := DecodeInbound(serializer, data)
				if err != nil {
					t.Fatalf("Connection request %d: unexpected error %v", i, err)
				}
				if got != nil || conn == nil {
					t.Fatalf("Connection request %d: decoded as command request", i)
				}
				if !reflect.DeepEqual(*conn, connReq) {
					t.Errorf("Connection request %d: expected %+v, got %+v", i, connReq, *conn)
				}
			}
		})
	}
}

func TestNewSerializer(t *testing.T) {
	for _, name := range Names() {
		s, err := NewSerializer(name)
		if err != nil {
			t.Fatalf("NewSerializer(%q) failed: %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Expected name %q, got %q", name, s.Name())
		}
	}

	if _, err := NewSerializer("xml"); err == nil {
		t.Error("Expected error for unknown serializer")
	}
}

// TestInvalidProtoData tests how the proto serializer handles corrupt or invalid data
func TestInvalidProtoData(t *testing.T) {
	serializer := NewProtoSerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: false, // callback index 0 with no result
		},
		{
			name:        "Truncated tag",
			data:        []byte{0x80},
			expectError: true,
		},
		{
			name:        "Truncated varint",
			data:        []byte{0x08, 0xff},
			expectError: true,
		},
		{
			name:        "Value length beyond data",
			data:        []byte{0x08, 0x01, 0x22, 0x0a, 'a', 'b'},
			expectError: true,
		},
		{
			name:        "Two results",
			data:        []byte{0x08, 0x01, 0x22, 0x01, 'a', 0x28, 0x00},
			expectError: true,
		},
		{
			name:        "Unknown constant",
			data:        []byte{0x08, 0x01, 0x28, 0x05},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var resp common.Response
			err := serializer.DeserializeResponse(tc.data, &resp)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

func TestProtoRejectsUnknownRequestFields(t *testing.T) {
	serializer := NewProtoSerializer()

	// field 10 (connection request addresses) is not part of a request
	var req common.Request
	if err := serializer.DeserializeRequest([]byte{0x52, 0x00}, &req); err == nil {
		t.Error("Expected error for unknown request field")
	}

	// field 1 (request callback index) is not part of a connection request
	var connReq common.ConnectionRequest
	if err := serializer.DeserializeConnectionRequest([]byte{0x08, 0x01}, &connReq); err == nil {
		t.Error("Expected error for unknown connection request field")
	}
}
