// Package eventloop provides the execution contexts that drive channel I/O.
//
// A Loop is a single goroutine that runs submitted tasks one at a time, in the order
// they were enqueued. Channels bound to a loop perform all of their writes from tasks,
// so writes to one channel never interleave and need no lock of their own.
//
// A Group owns a fixed number of loops and hands them out round-robin. Groups are
// created once per process (see the resources package) and shared by every channel.
//
// Key Components:
//
//   - taskQueue: Lock-free, unbounded multi-producer single-consumer queue. Producers
//     append with a CAS on the tail; the loop goroutine pops from the head and parks on
//     a one-slot wake channel when the queue is empty.
//
//   - Loop: Submit(task) enqueues work, the loop goroutine executes it. A task that
//     panics is recovered and logged, the loop keeps running.
//
//   - Group: Next() picks the loop for a new channel, Shutdown(ctx) closes every queue,
//     lets already queued tasks finish and waits for all loops to terminate.
package eventloop
