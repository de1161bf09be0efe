package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	goChatAuth "github.com/MrEthical07/goChatAuth"
)

// sessionOp is one lifecycle call made against a pooled client. It reports
// whether the call achieved its goal.
type sessionOp func(ctx context.Context, c *goChatAuth.Client) bool

// runLoadTest signs in a pool of clients, then runs validate, refresh and
// churn phases over them and prints latency percentiles for each.
func runLoadTest(ctx context.Context, cfg goChatAuth.Config, args []string) error {
	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	clients := fs.Int("clients", 64, "independent sessions in the pool")
	workers := fs.Int("concurrency", 32, "concurrent workers per phase")
	ops := fs.Int("ops", 2000, "calls per phase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *clients <= 0 || *workers <= 0 || *ops <= 0 {
		return fmt.Errorf("%w: clients, concurrency, and ops must be > 0", errUsage)
	}

	var rdb redis.UniversalClient
	if cfg.Storage.Backend == goChatAuth.StorageRedis && cfg.Storage.RedisAddr != "" {
		rdb = newRedis(cfg.Storage.RedisAddr)
		defer rdb.Close()
	}

	pool, err := signInPool(ctx, cfg, rdb, *clients)
	defer func() {
		for _, c := range pool {
			_ = c.Close()
		}
	}()
	if err != nil {
		return err
	}

	phases := []struct {
		name string
		op   sessionOp
	}{
		{"validate", func(ctx context.Context, c *goChatAuth.Client) bool {
			return c.ValidateSession(ctx, c.State().SessionID())
		}},
		{"refresh", func(ctx context.Context, c *goChatAuth.Client) bool {
			return c.RefreshSession(ctx, c.State().SessionID())
		}},
		{"churn", func(ctx context.Context, c *goChatAuth.Client) bool {
			c.Logout(ctx)
			_, err := c.SignInAnonymously(ctx)
			return err == nil
		}},
	}

	fmt.Println("---- results ----")
	for _, ph := range phases {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Println(drive(ctx, pool, *ops, *workers, ph.op).format(ph.name))
	}

	var fallbacks, mirrorFailures uint64
	for _, c := range pool {
		snap := c.MetricsSnapshot()
		fallbacks += snap.Counters[goChatAuth.MetricRefreshFallback]
		mirrorFailures += snap.Counters[goChatAuth.MetricStorageFailure]
	}
	fmt.Printf("refresh fallbacks: %d, storage failures: %d\n", fallbacks, mirrorFailures)
	return nil
}

// signInPool builds n clients that share rdb under separate namespaces and
// signs each one in. Clients built before a failure are still returned.
func signInPool(ctx context.Context, cfg goChatAuth.Config, rdb redis.UniversalClient, n int) ([]*goChatAuth.Client, error) {
	fmt.Printf("signing in %d clients...\n", n)
	began := time.Now()

	pool := make([]*goChatAuth.Client, 0, n)
	for i := range n {
		ccfg := cfg
		ccfg.Storage.Namespace = fmt.Sprintf("loadtest-%d", i)
		b := goChatAuth.New().WithConfig(ccfg).WithLogger(quietLogger())
		if rdb != nil {
			b.WithRedis(rdb)
		}
		c, err := b.Build()
		if err != nil {
			return pool, fmt.Errorf("client %d: %w", i, err)
		}
		pool = append(pool, c)
		if _, err := c.SignInAnonymously(ctx); err != nil {
			return pool, fmt.Errorf("client %d: %w", i, err)
		}
	}

	fmt.Printf("signed in in %s\n", time.Since(began).Round(time.Millisecond))
	return pool, nil
}

// drive hands ops calls to workers goroutines, each picking a random pooled
// client per call. Workers keep their own samples; they are merged once all
// workers exit.
func drive(ctx context.Context, pool []*goChatAuth.Client, ops, workers int, op sessionOp) phaseStats {
	jobs := make(chan struct{}, workers)
	results := make([]workerResult, workers)

	var wg sync.WaitGroup
	began := time.Now()
	for w := range workers {
		wg.Add(1)
		go func(res *workerResult) {
			defer wg.Done()
			for range jobs {
				c := pool[rand.IntN(len(pool))]
				t0 := time.Now()
				if !op(ctx, c) {
					res.failures++
				}
				res.samples = append(res.samples, time.Since(t0))
			}
		}(&results[w])
	}

	for range ops {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(began)

	var (
		samples  = make([]time.Duration, 0, ops)
		failures int
	)
	for _, res := range results {
		samples = append(samples, res.samples...)
		failures += res.failures
	}
	return computeStats(elapsed, samples, failures)
}

type workerResult struct {
	samples  []time.Duration
	failures int
}

type phaseStats struct {
	elapsed       time.Duration
	ops, failures int
	p50, p95, p99 time.Duration
}

func computeStats(elapsed time.Duration, samples []time.Duration, failures int) phaseStats {
	s := phaseStats{elapsed: elapsed, ops: len(samples), failures: failures}
	if len(samples) == 0 {
		return s
	}
	slices.Sort(samples)
	s.p50 = percentile(samples, 50)
	s.p95 = percentile(samples, 95)
	s.p99 = percentile(samples, 99)
	return s
}

// percentile returns the nearest-rank value from sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(float64(p) / 100 * float64(len(sorted))))
	return sorted[min(max(rank, 1), len(sorted))-1]
}

func (s phaseStats) format(name string) string {
	var rate float64
	if s.elapsed > 0 {
		rate = float64(s.ops) / s.elapsed.Seconds()
	}
	return fmt.Sprintf("%-8s ops=%d failed=%d elapsed=%s rate=%.0f/s p50=%s p95=%s p99=%s",
		name, s.ops, s.failures, s.elapsed.Round(time.Millisecond), rate,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond))
}
