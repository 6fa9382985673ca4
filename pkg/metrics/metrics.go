package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages reported by RowsTotal.
const (
	StageRead      = "read"
	StageSanitized = "sanitized"
	StageEnriched  = "enriched"
	StageInserted  = "inserted"
	StageIndexed   = "indexed"
)

// Metrics definitions
var (
	RowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexdict_rows_total",
		Help: "Total number of dictionary rows that passed a pipeline stage.",
	}, []string{"stage"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lexdict_run_seconds",
		Help:    "Time spent on a complete dictionary build.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexdict_runs_total",
		Help: "Total number of dictionary builds by outcome.",
	}, []string{"outcome"})

	SourceDownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lexdict_source_downloads_total",
		Help: "Total number of source tables fetched over the network.",
	})

	LookupRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexdict_lookup_requests_total",
		Help: "Total number of lookup API requests.",
	}, []string{"endpoint", "status"})

	LookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lexdict_lookup_seconds",
		Help:    "Latency of lookup API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// WriteTextfile dumps the default registry to path in the text exposition
// format read by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
