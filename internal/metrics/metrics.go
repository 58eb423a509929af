// Package metrics exposes the pipeline's ambient Prometheus surface.
// It is additive: the count.txt sentinel files spec.md §4.5.5 requires
// are written regardless of whether metrics are enabled, so a crashed
// run still resumes off the filesystem per the resumability contract.
// Grounded on the cross-pack prevalence of prometheus/client_golang
// (etalazz-vsa, jordigilh-kubernaut, teemuteemu-caddy-language-server).
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// RecordsEmitted and RecordsDropped are updated by internal/enrich.
// FilesProcessed and StageDuration are registered and exported, but no
// stage updates them, so they always read zero.
var (
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mrt_collector_files_processed_total",
		Help: "MRT files that finished a stage.",
	}, []string{"stage"})

	RecordsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mrt_collector_records_emitted_total",
		Help: "Enriched records written to per-block shards.",
	})

	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mrt_collector_records_dropped_total",
		Help: "Records dropped during parsing, by reason.",
	}, []string{"reason"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mrt_collector_stage_duration_seconds",
		Help:    "Wall-clock duration of a pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// Serve starts the metrics HTTP endpoint if addr is non-empty. It
// returns immediately; the server runs until ctx is cancelled.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
