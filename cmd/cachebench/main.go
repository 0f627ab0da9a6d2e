// Command cachebench runs a synthetic Zipfian workload against a two-tier
// cachelon.Cache (an in-memory outer tier backed by an in-memory fallback
// standing in for a remote source of truth) and exposes optional pprof and
// Prometheus endpoints. Every flag can also be set via a CACHEBENCH_* env
// var, which takes precedence when present.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cachelon-go/cachelon"
	"github.com/cachelon-go/cachelon/clock"
	"github.com/cachelon-go/cachelon/internal/util"
	"github.com/cachelon-go/cachelon/memory"
	"github.com/cachelon-go/cachelon/policy/twoq"
	"github.com/cachelon-go/cachelon/refresh"
	"github.com/cachelon-go/cachelon/telemetry"
	"github.com/cachelon-go/cachelon/telemetry/prom"
	"github.com/cachelon-go/cachelon/tier"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// config holds every tunable, settable by flag and overridable by a
// CACHEBENCH_* environment variable of the same name (envconfig leaves a
// field at its flag-assigned value when the env var is unset).
type config struct {
	Capacity int    `envconfig:"capacity"`
	Shards   int    `envconfig:"shards"`
	Policy   string `envconfig:"policy"`

	Workers  int           `envconfig:"workers"`
	Duration time.Duration `envconfig:"duration"`
	ReadPct  int           `envconfig:"read_pct"`

	Keys    int     `envconfig:"keys"`
	ZipfS   float64 `envconfig:"zipf_s"`
	ZipfV   float64 `envconfig:"zipf_v"`
	Seed    int64   `envconfig:"seed"`
	Preload int     `envconfig:"preload"`

	TTL              time.Duration `envconfig:"ttl"`
	RefreshThreshold time.Duration `envconfig:"refresh_threshold"`
	Coalesced        bool          `envconfig:"coalesced"`

	PprofAddr   string `envconfig:"pprof_addr"`
	MetricsAddr string `envconfig:"metrics_addr"`
	Namespace   string `envconfig:"namespace"`
}

func main() {
	cfg := config{
		Capacity: 100_000,
		Shards:   0,
		Policy:   "lru",

		Workers:  2 * runtime.GOMAXPROCS(0),
		Duration: 10 * time.Second,
		ReadPct:  80,

		Keys:    1_000_000,
		ZipfS:   1.1,
		ZipfV:   1.0,
		Seed:    time.Now().UnixNano(),
		Preload: 0,

		TTL:              0,
		RefreshThreshold: 0,
		Coalesced:        false,

		PprofAddr:   "",
		MetricsAddr: ":8080",
		Namespace:   "cachelon",
	}
	bindFlags(&cfg)
	flag.Parse()
	if err := envconfig.Process("cachebench", &cfg); err != nil {
		log.Fatalf("cachebench: env config: %v", err)
	}

	if cfg.PprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", cfg.PprofAddr)
			log.Println(http.ListenAndServe(cfg.PprofAddr, nil))
		}()
	}

	sink := prom.New(nil, cfg.Namespace, "bench")
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", cfg.MetricsAddr)
		log.Println(http.ListenAndServe(cfg.MetricsAddr, nil))
	}()

	c := buildCache(cfg, sink)
	preload(c, cfg)

	result := run(c, cfg)
	report(cfg, result)
}

// bindFlags registers a flag for every config field, using cfg's current
// value as the flag's default.
func bindFlags(cfg *config) {
	flag.IntVar(&cfg.Capacity, "cap", cfg.Capacity, "outer tier capacity (entries)")
	flag.IntVar(&cfg.Shards, "shards", cfg.Shards, "number of shards (0=auto)")
	flag.StringVar(&cfg.Policy, "policy", cfg.Policy, "eviction policy: lru | 2q")

	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of worker goroutines")
	flag.DurationVar(&cfg.Duration, "duration", cfg.Duration, "benchmark duration")
	flag.IntVar(&cfg.ReadPct, "reads", cfg.ReadPct, "read percentage [0..100]")

	flag.IntVar(&cfg.Keys, "keys", cfg.Keys, "keyspace size")
	flag.Float64Var(&cfg.ZipfS, "zipf_s", cfg.ZipfS, "Zipf s > 1 (skew)")
	flag.Float64Var(&cfg.ZipfV, "zipf_v", cfg.ZipfV, "Zipf v")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.IntVar(&cfg.Preload, "preload", cfg.Preload, "preload entries into the outer tier (0 = cap/2)")

	flag.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "outer tier TTL (0 = no expiry)")
	flag.DurationVar(&cfg.RefreshThreshold, "refresh_threshold", cfg.RefreshThreshold, "time-to-refresh (0 = disabled; requires ttl)")
	flag.BoolVar(&cfg.Coalesced, "coalesced", cfg.Coalesced, "route every Get through the coalescer")

	flag.StringVar(&cfg.PprofAddr, "pprof", cfg.PprofAddr, "serve pprof at addr (e.g. :6060); empty = disabled")
	flag.StringVar(&cfg.MetricsAddr, "http", cfg.MetricsAddr, "serve Prometheus metrics at addr")
	flag.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "Prometheus metric namespace")
}

// buildCache assembles a two-tier string->string cache: an outer in-memory
// tier governed by TTL/refresh/coalescing, falling back to a second
// in-memory tier standing in for a slower, larger remote store.
func buildCache(cfg config, sink telemetry.Sink) *cachelon.Cache[string, string] {
	clk := clock.New()
	logger, _ := zap.NewProduction()

	innerOpt := memory.Options[string, string]{Capacity: cfg.Capacity * 4, Clock: clk}
	innerTier := memory.New[string, string](innerOpt)
	inner, err := cachelon.NewBuilder[string, string](clk).
		Tier(innerTier).
		Name("cachebench").
		Position("remote").
		Telemetry(telemetry.NewConfig().WithMetrics(sink)).
		Build()
	if err != nil {
		log.Fatalf("cachebench: building inner cache: %v", err)
	}

	outerOpt := memory.Options[string, string]{Capacity: cfg.Capacity, Shards: cfg.Shards, Clock: clk}
	if cfg.Policy == "2q" {
		// twoq sizes are per shard; mirror memory.New's shard-count choice.
		shards := cfg.Shards
		if shards <= 0 {
			shards = 2 * runtime.GOMAXPROCS(0)
		}
		shards = int(util.NextPow2(uint64(shards)))
		perShard := (cfg.Capacity + shards - 1) / shards
		outerOpt.Policy = twoq.New[string, tier.CacheEntry[string]](perShard/4, perShard/2)
	} else if cfg.Policy != "lru" {
		log.Fatalf("cachebench: unknown policy %q (use lru or 2q)", cfg.Policy)
	}
	outerTier := memory.New[string, string](outerOpt)

	builder := cachelon.NewBuilder[string, string](clk).
		Tier(outerTier).
		Name("cachebench").
		Position("memory").
		Fallback(inner).
		Promotion(cachelon.PromotionAlways[string]()).
		Telemetry(telemetry.NewConfig().WithMetrics(sink).WithLogs(logger))
	if cfg.TTL > 0 {
		builder = builder.TTL(cfg.TTL)
		if cfg.RefreshThreshold > 0 {
			builder = builder.RefreshThreshold(cfg.RefreshThreshold).Refresher(refresh.New[string](clk, logger))
		}
	}
	if cfg.Coalesced {
		builder = builder.Coalesced()
	}

	outer, err := builder.Build()
	if err != nil {
		log.Fatalf("cachebench: building outer cache: %v", err)
	}
	return outer
}

func preload(c *cachelon.Cache[string, string], cfg config) {
	pl := cfg.Preload
	if pl == 0 {
		pl = cfg.Capacity / 2
	}
	ctx := context.Background()
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		_ = c.Insert(ctx, k, "v"+strconv.Itoa(i))
	}
}

type runResult struct {
	elapsed              time.Duration
	total, reads, writes uint64
	hits, misses         uint64
}

func run(c *cachelon.Cache[string, string], cfg config) runResult {
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	keysMax := uint64(cfg.Keys - 1)
	workersN := cfg.Workers
	if workersN <= 0 {
		workersN = 1
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()
			localR := rand.New(rand.NewSource(cfg.Seed + int64(id)*9973))
			localZipf := rand.NewZipf(localR, cfg.ZipfS, cfg.ZipfV, keysMax)
			keyByZipf := func() string { return "k:" + strconv.FormatUint(localZipf.Uint64(), 10) }

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < cfg.ReadPct {
					atomic.AddUint64(&reads, 1)
					if _, ok, _ := c.Get(ctx, keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					_ = c.Insert(ctx, keyByZipf(), "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()

	return runResult{
		elapsed: time.Since(start),
		total:   atomic.LoadUint64(&total),
		reads:   atomic.LoadUint64(&reads),
		writes:  atomic.LoadUint64(&writes),
		hits:    atomic.LoadUint64(&hits),
		misses:  atomic.LoadUint64(&misses),
	}
}

func report(cfg config, r runResult) {
	hitRate := 0.0
	if r.reads > 0 {
		hitRate = float64(r.hits) / float64(r.reads) * 100
	}
	fmt.Printf("policy=%s cap=%d shards=%d workers=%d keys=%d dur=%v seed=%d ttl=%v refresh_threshold=%v coalesced=%v\n",
		cfg.Policy, cfg.Capacity, cfg.Shards, cfg.Workers, cfg.Keys, r.elapsed, cfg.Seed, cfg.TTL, cfg.RefreshThreshold, cfg.Coalesced)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		r.total, float64(r.total)/r.elapsed.Seconds(), r.reads, r.writes)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", r.hits, r.misses, hitRate)
}
