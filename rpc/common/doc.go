// Package common provides the data structures shared by the client, the
// transport and the engine.
//
// Key Components:
//
//   - Request / ConnectionRequest: outbound payloads. A Request carries the
//     callback index stamped by the channel handler; the ConnectionRequest
//     carries none and is answered with the reserved index 0.
//
//   - Response: inbound payload with a callback index and one result variant
//     (value, none, OK, request error, closing error).
//
//   - ClientConfig / ServerConfig: configuration of the client and the mock
//     engine, with yaml support for client config files.
//
//   - Logger: custom formatter for dragonboat's logger.ILogger used by every
//     package of the module.
package common
