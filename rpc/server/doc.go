// Package server implements a small in-memory command engine that speaks the
// dMux wire protocol. It is used as the counterpart of the client in tests,
// benchmarks and the `dmux engine` command.
//
// Key Components:
//
//   - Engine: implements transport.IServerHandler. It answers connection requests
//     (optionally checking a password) and executes PING, ECHO, GET, SET (with PX),
//     DEL, INFO and a handful of custom commands (SLEEP, PTTL, DBSIZE, ABORT, CLOSE,
//     ERROR) used to provoke every response kind the client has to handle.
//
//   - NewServerTransport: picks the unix or tcp transport from the endpoint.
//
//   - NewRPCServer: binds an engine to a transport.
//
// Usage Example:
//
//	config := common.ServerConfig{Endpoint: "/tmp/dmux.sock", WorkersPerConn: 16}
//	t, err := server.NewServerTransport(config, serializer.NewProtoSerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	s := server.NewRPCServer(config, t)
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Keys with an expiry are removed lazily on access and by a background sweep
// while the server is running.
package server
