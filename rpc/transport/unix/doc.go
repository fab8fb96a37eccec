// Package unix implements the Unix domain socket flavour of the transport,
// the default for a client talking to an engine on the same machine.
//
// Key Components:
//
//   - clientConnector: dials socket paths (optionally prefixed with "unix://")
//
//   - serverConnector: replaces stale socket files and listens on the path
package unix
