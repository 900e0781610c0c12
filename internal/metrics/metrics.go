// Package metrics records per-run ingestion counters in a Prometheus
// registry and writes them to a node_exporter textfile.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"artify/internal/event"
)

const namespace = "artify"

// Run holds the collectors for one ingestion run. A fresh registry per run
// keeps the textfile limited to the latest run.
type Run struct {
	registry *prometheus.Registry

	recordsFound      *prometheus.GaugeVec
	recordsNormalized *prometheus.GaugeVec
	recordsRejected   *prometheus.GaugeVec
	recordsMerged     *prometheus.GaugeVec
	sourceDuration    *prometheus.GaugeVec
	sourceUp          *prometheus.GaugeVec
	groups            prometheus.Gauge
	canonical         prometheus.Gauge
	upserts           *prometheus.CounterVec
	runDuration       prometheus.Gauge
	lastRun           *prometheus.GaugeVec
}

// NewRun registers the run collectors in a new registry.
func NewRun() *Run {
	r := &Run{registry: prometheus.NewRegistry()}
	r.recordsFound = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_records_found",
		Help:      "Raw records returned by the source adapter",
	}, []string{"source"})
	r.recordsNormalized = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_records_normalized",
		Help:      "Records that passed normalization",
	}, []string{"source"})
	r.recordsRejected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_records_rejected",
		Help:      "Records dropped during normalization, by reason",
	}, []string{"source", "reason"})
	r.recordsMerged = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_records_merged",
		Help:      "Records absorbed into another source's canonical event",
	}, []string{"source"})
	r.sourceDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_duration_seconds",
		Help:      "Time spent scraping and normalizing a source",
	}, []string{"source"})
	r.sourceUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_status",
		Help:      "1 for the status the source finished with",
	}, []string{"source", "status"})
	r.groups = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dedup_groups",
		Help:      "Duplicate groups formed in the run",
	})
	r.canonical = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dedup_canonical_events",
		Help:      "Canonical events produced by deduplication",
	})
	r.upserts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upsert_total",
		Help:      "Catalog writes by outcome",
	}, []string{"outcome"})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the ingestion run",
	})
	r.lastRun = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_last_timestamp_seconds",
		Help:      "Unix time the run finished, labelled by final state",
	}, []string{"state"})

	r.registry.MustRegister(
		r.recordsFound, r.recordsNormalized, r.recordsRejected, r.recordsMerged,
		r.sourceDuration, r.sourceUp, r.groups, r.canonical, r.upserts,
		r.runDuration, r.lastRun,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSource records a finished source run log.
func (r *Run) ObserveSource(log event.SourceRunLog) {
	r.recordsFound.WithLabelValues(log.Source).Set(float64(log.Found))
	r.recordsNormalized.WithLabelValues(log.Source).Set(float64(log.Normalized))
	r.recordsMerged.WithLabelValues(log.Source).Set(float64(log.Merged))
	for reason, count := range log.RejectReasons {
		r.recordsRejected.WithLabelValues(log.Source, reason).Set(float64(count))
	}
	r.sourceDuration.WithLabelValues(log.Source).Set(log.Duration().Seconds())
	r.sourceUp.WithLabelValues(log.Source, string(log.Status)).Set(1)
}

// ObserveDedup records the merge statistics.
func (r *Run) ObserveDedup(groups, canonical int) {
	r.groups.Set(float64(groups))
	r.canonical.Set(float64(canonical))
}

// ObserveUpserts adds catalog write outcomes.
func (r *Run) ObserveUpserts(outcome event.UpsertOutcome, count int) {
	if count <= 0 {
		return
	}
	r.upserts.WithLabelValues(string(outcome)).Add(float64(count))
}

// Finish stamps the run duration and final state.
func (r *Run) Finish(state event.RunState, elapsed time.Duration, at time.Time) {
	r.runDuration.Set(elapsed.Seconds())
	r.lastRun.WithLabelValues(string(state)).Set(float64(at.Unix()))
}

// WriteTextfile writes the registry to path in the text exposition format.
// An empty path is a no-op.
func (r *Run) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
