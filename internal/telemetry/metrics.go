package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScansStarted counts scans accepted by the orchestrator
	ScansStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "scans_started_total",
			Help:      "Total number of scans dispatched to the scan engine",
		},
		[]string{"target_type"},
	)

	// ScansCompleted counts finished scans by outcome
	ScansCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "scans_completed_total",
			Help:      "Total number of scans that reached a terminal state",
		},
		[]string{"status"},
	)

	// EnrichmentLookups counts external vulnerability lookups by result
	EnrichmentLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "enrichment_lookups_total",
			Help:      "Total number of vulnerability lookup requests",
		},
		[]string{"result"},
	)

	// EnrichmentSkipped counts findings excluded by the eligibility filter
	EnrichmentSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "enrichment_skipped_total",
			Help:      "Total number of findings skipped by the enrichment eligibility filter",
		},
		[]string{"reason"},
	)

	// CVEMatches counts findings that received a CVE attachment
	CVEMatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "cve_matches_total",
			Help:      "Total number of findings enriched with a CVE record",
		},
	)

	// ReportTransitions counts review state machine transitions
	ReportTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sightline",
			Name:      "report_transitions_total",
			Help:      "Total number of report review transitions",
		},
		[]string{"to"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(ScansStarted)
		prometheus.DefaultRegisterer.Register(ScansCompleted)
		prometheus.DefaultRegisterer.Register(EnrichmentLookups)
		prometheus.DefaultRegisterer.Register(EnrichmentSkipped)
		prometheus.DefaultRegisterer.Register(CVEMatches)
		prometheus.DefaultRegisterer.Register(ReportTransitions)
	})
}
