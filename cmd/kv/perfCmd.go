package kv

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/kvs/cmd/util"
	"github.com/ValentinKolb/kvs/lib/session"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"sync"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Load test a kvs server through one session",
		Long:    "Issues put and get commands from several goroutines on a single session and reports the command latency. Use --pipelining to keep more than one command in flight.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__perf"
	perfOps        = 10000
	perfNumThreads = 10
	perfKeySpread  = 100
	perfValueSize  = 16
)

func init() {
	key := "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of commands to issue per benchmark"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines issuing commands"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 16, util.WrapString("Size of the written values (in bytes)"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfOps = viper.GetInt("ops")
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfValueSize = viper.GetInt("value-size")
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for kvs servers")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Ops: %d, Keys: %d\n\n", perfNumThreads, perfOps, perfKeySpread)

	value := strings.Repeat("x", perfValueSize)

	benchmarks := []struct {
		name string
		op   func(key string) (*session.Future, error)
	}{
		{"put", func(key string) (*session.Future, error) { return kvSession.Put(key, value) }},
		{"get", kvSession.Get},
	}

	for _, bm := range benchmarks {
		if err := runBenchmark(bm.name, bm.op); err != nil {
			return err
		}
	}

	// cleanup
	for i := 0; i < perfKeySpread; i++ {
		if err := rpcStore.Delete(perfKey(i)); err != nil {
			return err
		}
	}
	return nil
}

// runBenchmark issues perfOps commands from perfNumThreads goroutines and prints their latency
func runBenchmark(name string, op func(key string) (*session.Future, error)) error {
	timer := gometrics.GetOrRegisterTimer("perf."+name, kvSession.Registry())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	start := time.Now()

	perThread := perfOps / perfNumThreads
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			for i := 0; i < perThread; i++ {
				issued := time.Now()
				f, err := op(perfKey(t*perThread + i))
				if err == nil {
					_, err = f.Wait(ctx)
				}
				timer.UpdateSince(issued)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
			}
		}(t)
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("%s failed: %w", name, firstErr)
	}

	elapsed := time.Since(start)
	ps := timer.Percentiles([]float64{0.5, 0.99})

	fmt.Printf("%-5s %8d ops in %-12s %10.0f ops/s  mean %-10s p50 %-10s p99 %s\n",
		name,
		timer.Count(),
		elapsed.Round(time.Millisecond),
		float64(timer.Count())/elapsed.Seconds(),
		time.Duration(timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
	)
	return nil
}

func perfKey(i int) string {
	return fmt.Sprintf("%s-%d", perfKeyPrefix, i%perfKeySpread)
}
