// Package client implements the dMux client on top of a multiplexed channel handler.
// Many goroutines share one connection; every command is matched to its response
// by callback ID, so slow commands never block fast ones.
//
// Key Components:
//
//   - Dial: opens a connection through a resources.ResourcePool and performs the
//     connection handshake built from common.ClientConfig.
//
//   - IClient: Execute, ExecuteAsync and ExecuteBatch send commands, Close fails
//     every pending request and closes the connection.
//
//   - Errors: RequestError, ExecAbortError, TimeoutError, DisconnectError and
//     ClosingError. Use errors.As to tell them apart.
//
// Usage Example:
//
//	allocator := resources.NewAllocator()
//	defer allocator.Shutdown(context.Background())
//
//	config := common.DefaultClientConfig()
//	config.Endpoint = "/tmp/dmux.sock"
//
//	c, err := client.Dial(ctx, allocator.GetOrCreate(config.ThreadPoolSize), config, serializer.NewProtoSerializer())
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer c.Close()
//
//	if _, err := c.Execute(ctx, common.ReqTSet, client.Args("key", "value")...); err != nil {
//	  log.Fatal(err)
//	}
//
// A response with a closing error means the engine is going away. The client closes
// itself and every later call fails with a ClosingError.
package client
