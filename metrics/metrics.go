package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ComplaintsTotal counts handled complaints by result.
	ComplaintsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grabcare",
		Subsystem: "resolver",
		Name:      "complaints_total",
		Help:      "Total number of complaints handled, labeled by result.",
	}, []string{"result"})

	// DecisionTierTotal counts decided complaints by tier.
	DecisionTierTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grabcare",
		Subsystem: "resolver",
		Name:      "decision_tier_total",
		Help:      "Total number of decided complaints, labeled by tier.",
	}, []string{"tier"})

	// ExtractionFallbackTotal counts complaints where the LLM path failed and
	// the keyword extractor was used.
	ExtractionFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grabcare",
		Subsystem: "resolver",
		Name:      "extraction_fallback_total",
		Help:      "Total number of complaints resolved via the keyword fallback extractor.",
	})

	// ScoringDegradedTotal counts credibility scores computed without storage.
	ScoringDegradedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grabcare",
		Subsystem: "resolver",
		Name:      "scoring_degraded_total",
		Help:      "Total number of credibility scores computed via the degraded heuristic.",
	})

	// HandleDurationSeconds is end-to-end time per complaint.
	HandleDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grabcare",
		Subsystem: "resolver",
		Name:      "handle_duration_seconds",
		Help:      "End-to-end time to resolve a complaint (extraction + scoring + decision).",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"service"})
)

// Register registers resolver metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ComplaintsTotal,
			DecisionTierTotal,
			ExtractionFallbackTotal,
			ScoringDegradedTotal,
			HandleDurationSeconds,
		)
	})
}
