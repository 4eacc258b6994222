// Command bench runs a synthetic entry churn workload against the
// allocator and exposes optional pprof/Prometheus endpoints.
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
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/stormzhai/ohc/alloc"
	"github.com/stormzhai/ohc/entry"
	"github.com/stormzhai/ohc/mem"
	"github.com/stormzhai/ohc/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		shards   = flag.Int("shards", 0, "pool shards (0=auto)")
		capacity = flag.Int("cap", alloc.DefaultCapacity, "pool slot capacity (total)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keyLen   = flag.Int("keylen", 32, "entry key length (bytes)")
		maxValue = flag.Int("maxvalue", 16*1024, "max entry value length (bytes)")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := prom.New(nil, "ohc", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build allocator ----
	arena := mem.NewArena()
	a := alloc.New(arena, alloc.Options{
		Shards:   *shards,
		Capacity: *capacity,
		Metrics:  metrics,
	})

	// ---- Run workload ----
	log.Printf("bench: %d workers, %s, keylen=%d maxvalue=%d",
		*workers, *duration, *keyLen, *maxValue)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var ops atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < *workers; w++ {
		w := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(*seed + int64(w)*9973))
			key := make([]byte, *keyLen)
			for ctx.Err() == nil {
				r.Read(key)
				kb := entry.NewKeyBuffer(key)
				valueLen := int64(1 + r.Intn(*maxValue))
				allocLen := entry.AllocLen(kb.Len(), valueLen)

				addr, err := a.Allocate(allocLen)
				if err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
				entry.Init(kb.Hash(), kb.Len(), valueLen, addr)
				mem.PutBytes(addr, entry.HeaderSize, key)

				if !entry.CompareKey(addr, kb) {
					return fmt.Errorf("worker %d: stored key did not match", w)
				}
				if entry.Dereference(addr) {
					a.Free(addr, allocLen)
				}
				ops.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	elapsed := *duration
	st := a.Stats()
	total := ops.Load()
	log.Printf("done: %d ops (%.0f ops/s)", total, float64(total)/elapsed.Seconds())
	log.Printf("pool: hits=%d misses=%d frees=%d evictions=%d retained=%d",
		st.Hits, st.Misses, st.Frees, st.Evictions, st.Retained)
	hitRate := float64(st.Hits) / float64(st.Hits+st.Misses) * 100
	log.Printf("pool hit rate: %.1f%%", hitRate)

	a.Clear()
	log.Printf("bytes still mapped after clear: %d", arena.Allocated())
}
