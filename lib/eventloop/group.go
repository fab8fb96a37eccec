package eventloop

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Group is a fixed set of loops shared by many channels
type Group struct {
	name     string
	loops    []*Loop
	nextLoop atomic.Uint64 // round robin counter
	workers  errgroup.Group

	shutdownOnce sync.Once
	terminated   chan struct{}
}

// NewGroup starts size loops named "<name>-<i>".
// size <= 0 selects one loop per CPU.
func NewGroup(name string, size int) *Group {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	g := &Group{
		name:       name,
		loops:      make([]*Loop, size),
		terminated: make(chan struct{}),
	}

	for i := range g.loops {
		l := newLoop(fmt.Sprintf("%s-%d", name, i))
		g.loops[i] = l
		g.workers.Go(func() error {
			l.run()
			return nil
		})
	}

	go func() {
		_ = g.workers.Wait()
		close(g.terminated)
	}()

	Logger.Infof("Started event loop group %s with %d loops", name, size)
	return g
}

// Name returns the name of the group
func (g *Group) Name() string {
	return g.name
}

// Size returns the number of loops in the group
func (g *Group) Size() int {
	return len(g.loops)
}

// Next selects the next loop via round robin
func (g *Group) Next() *Loop {
	if len(g.loops) == 1 {
		return g.loops[0]
	}
	index := (g.nextLoop.Add(1) - 1) % uint64(len(g.loops))
	return g.loops[index]
}

// Terminated is closed once every loop of the group has exited
func (g *Group) Terminated() <-chan struct{} {
	return g.terminated
}

// Shutdown asks every loop to drain its queue and terminate.
// It waits until all loops have exited or ctx is done; calling it again only waits.
func (g *Group) Shutdown(ctx context.Context) error {
	g.shutdownOnce.Do(func() {
		Logger.Infof("Shutting down event loop group %s", g.name)
		for _, l := range g.loops {
			l.shutdown()
		}
	})

	select {
	case <-g.terminated:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event loop group %s did not terminate: %w", g.name, ctx.Err())
	}
}
