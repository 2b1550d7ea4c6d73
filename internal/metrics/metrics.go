package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for compliance checks and the HTTP API.
// Every method is safe on a nil *Metrics.
type Metrics struct {
	// Determinations by outcome and entry point
	CheckOutcome *prometheus.CounterVec

	// Check latency by entry point
	CheckLatency *prometheus.HistogramVec

	// Result cache lookups by hit/miss
	CacheLookups *prometheus.CounterVec

	// Rejected requests by reason
	RequestRejected *prometheus.CounterVec

	// Narrative attempts by status
	NarrativeOutcome *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CheckOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitcheck_check_outcomes_total",
			Help: "Total compliance determinations by outcome and entry point",
		}, []string{"determination", "source"}), // source: "api", "batch"

		CheckLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "permitcheck_check_duration_seconds",
			Help:    "Duration of a compliance check, excluding narrative generation",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.1},
		}, []string{"source"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitcheck_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),

		RequestRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitcheck_requests_rejected_total",
			Help: "Requests rejected before a check ran, by reason",
		}, []string{"reason"}), // reason: "validation", "rate_limited", "decode"

		NarrativeOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permitcheck_narrative_outcomes_total",
			Help: "Narrative generation attempts by status",
		}, []string{"status"}),
	}
}

// ObserveCheck records one determination and its latency.
func (m *Metrics) ObserveCheck(source, determination string, d time.Duration) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(determination, source).Inc()
		m.CheckLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(hit bool) {
	if m != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementRejected records a request rejected before checking.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.RequestRejected.WithLabelValues(reason).Inc()
	}
}

// IncrementNarrative records a narrative attempt.
func (m *Metrics) IncrementNarrative(status string) {
	if m != nil {
		m.NarrativeOutcome.WithLabelValues(status).Inc()
	}
}
