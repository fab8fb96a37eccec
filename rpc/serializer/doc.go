// Package serializer encodes the payloads carried inside transport frames:
// command requests, the connection request and responses.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - protoSerializerImpl: protobuf wire format written and parsed with protowire.
//     Smallest payloads and the default of the client and the engine.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging with socat or tcpdump.
//
//   - gobSerializerImpl: Go's gob encoding. Every payload is a self contained gob
//     stream, which makes it by far the largest format.
//
//   - DecodeInbound: engine side helper that tells command requests and
//     connection requests apart.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	s, err := serializer.NewSerializer("proto")
//	data, err := s.SerializeRequest(&common.Request{CallbackIdx: 1, RequestType: common.ReqTPing})
//	// ... send data ...
//	var resp common.Response
//	err = s.DeserializeResponse(received, &resp)
package serializer
