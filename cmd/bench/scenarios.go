package bench

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ValentinKolb/dMux/rpc/client"
	"github.com/ValentinKolb/dMux/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
)

// scenario is a named workload. op is called with a running counter and
// returns the number of requests it issued.
type scenario struct {
	name    string
	prepare func(ctx context.Context, c client.IClient) error
	op      func(ctx context.Context, c client.IClient, i int) (int, error)
}

// result is the outcome of a single scenario
type result struct {
	name     string
	requests int64
	errors   int64
	elapsed  time.Duration
	latency  gometrics.Timer
}

// RequestsPerSec returns the throughput of the scenario
func (r result) RequestsPerSec() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.requests) / r.elapsed.Seconds()
}

func scenarios() []scenario {
	value := []byte("bench")
	largeValue := make([]byte, benchLargeValueSizeKB*1024)

	fill := func(ctx context.Context, c client.IClient) error {
		for i := 0; i < benchKeySpread; i++ {
			if _, err := c.Execute(ctx, common.ReqTSet, benchKey(i), value); err != nil {
				return err
			}
		}
		return nil
	}

	single := func(requestType common.RequestType, args func(i int) [][]byte) func(context.Context, client.IClient, int) (int, error) {
		return func(ctx context.Context, c client.IClient, i int) (int, error) {
			_, err := c.Execute(ctx, requestType, args(i)...)
			return 1, err
		}
	}

	return []scenario{
		{
			name: "ping",
			op:   single(common.ReqTPing, func(int) [][]byte { return nil }),
		},
		{
			name: "set",
			op: single(common.ReqTSet, func(i int) [][]byte {
				return [][]byte{benchKey(i), value}
			}),
		},
		{
			name: "set-large",
			op: single(common.ReqTSet, func(i int) [][]byte {
				return [][]byte{benchKey(i), largeValue}
			}),
		},
		{
			name:    "get",
			prepare: fill,
			op: single(common.ReqTGet, func(i int) [][]byte {
				return [][]byte{benchKey(i)}
			}),
		},
		{
			name: "mixed",
			op: func(ctx context.Context, c client.IClient, i int) (int, error) {
				var err error
				switch i % 3 {
				case 0:
					_, err = c.Execute(ctx, common.ReqTSet, benchKey(i), value)
				case 1:
					_, err = c.Execute(ctx, common.ReqTGet, benchKey(i))
				case 2:
					_, err = c.Execute(ctx, common.ReqTDel, benchKey(i))
				}
				return 1, err
			},
		},
		{
			name:    "batch",
			prepare: fill,
			op: func(ctx context.Context, c client.IClient, i int) (int, error) {
				cmds := make([]client.Command, benchBatchSize)
				for j := range cmds {
					cmds[j] = client.Command{Type: common.ReqTGet, Args: [][]byte{benchKey(i + j)}}
				}
				for _, r := range c.ExecuteBatch(ctx, cmds) {
					if r.Err != nil {
						return len(cmds), r.Err
					}
				}
				return len(cmds), nil
			},
		},
	}
}

// runScenario spreads benchRequests over benchWorkers goroutines sharing one client
func runScenario(ctx context.Context, c client.IClient, s scenario) (result, error) {
	if s.prepare != nil {
		if err := s.prepare(ctx, c); err != nil {
			return result{}, err
		}
	}

	latency := gometrics.NewTimer()
	defer latency.Stop()
	requests := gometrics.NewCounter()
	failures := gometrics.NewCounter()

	var wg sync.WaitGroup
	perWorker := max(benchRequests/benchWorkers, 1)
	start := time.Now()
	for w := 0; w < benchWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; {
				opStart := time.Now()
				n, err := s.op(ctx, c, w*perWorker+i)
				latency.UpdateSince(opStart)
				requests.Inc(int64(n))
				if err != nil {
					failures.Inc(1)
				}
				i += n
			}
		}(w)
	}
	wg.Wait()

	return result{
		name:     s.name,
		requests: requests.Count(),
		errors:   failures.Count(),
		elapsed:  time.Since(start),
		latency:  latency.Snapshot(),
	}, nil
}

func benchKey(i int) []byte {
	return []byte(benchKeyPrefix + "-" + strconv.Itoa(i%benchKeySpread))
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

var percentiles = []float64{0.5, 0.99, 0.999}

func printHeader() {
	fmt.Printf("%-12s%12s%14s%12s%12s%12s%12s%8s\n", "scenario", "requests", "req/sec", "mean", "p50", "p99", "p99.9", "errors")
}

func printSkipped(name string) {
	fmt.Printf("%-12sskipped\n", name)
}

func printResult(r result) {
	ps := r.latency.Percentiles(percentiles)
	fmt.Printf("%-12s%12d%14.0f%12s%12s%12s%12s%8d\n",
		r.name,
		r.requests,
		r.RequestsPerSec(),
		roundDuration(r.latency.Mean()),
		roundDuration(ps[0]),
		roundDuration(ps[1]),
		roundDuration(ps[2]),
		r.errors,
	)
}

func roundDuration(ns float64) string {
	return time.Duration(ns).Round(time.Microsecond).String()
}
