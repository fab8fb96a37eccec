package util

import (
	"context"

	"github.com/ValentinKolb/dMux/rpc/client"
	"github.com/ValentinKolb/dMux/rpc/common"
	"github.com/ValentinKolb/dMux/rpc/transport/resources"
)

// allocator owns the event loops of every client the cli creates
var allocator = resources.NewAllocator()

// Connect dials the engine described by config.
// The returned function closes the client and shuts the event loops down.
func Connect(ctx context.Context, config *common.ClientConfig) (client.IClient, func(), error) {
	s, err := GetSerializer()
	if err != nil {
		return nil, nil, err
	}

	pool := allocator.GetOrCreate(config.ThreadPoolSize)
	c, err := client.Dial(ctx, pool, *config, s)
	if err != nil {
		_ = allocator.Shutdown(context.Background())
		return nil, nil, err
	}

	return c, func() {
		_ = c.Close()
		_ = allocator.Shutdown(context.Background())
	}, nil
}
