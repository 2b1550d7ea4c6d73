package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveCheck(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCheck("api", "PermittedDevelopment", 2*time.Millisecond)
	m.ObserveCheck("api", "PermittedDevelopment", time.Millisecond)
	m.ObserveCheck("batch", "RequiresPlanningPermission", time.Millisecond)

	if got := testutil.ToFloat64(m.CheckOutcome.WithLabelValues("PermittedDevelopment", "api")); got != 2 {
		t.Errorf("Expected 2 api PD outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.CheckOutcome.WithLabelValues("RequiresPlanningPermission", "batch")); got != 1 {
		t.Errorf("Expected 1 batch RPP outcome, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CheckLatency); got != 2 {
		t.Errorf("Expected 2 latency series, got %d", got)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementCacheLookup(true)
	m.IncrementCacheLookup(false)
	m.IncrementCacheLookup(false)
	m.IncrementRejected("validation")
	m.IncrementNarrative("generated")

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("Expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(m.RequestRejected.WithLabelValues("validation")); got != 1 {
		t.Errorf("Expected 1 validation rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.NarrativeOutcome.WithLabelValues("generated")); got != 1 {
		t.Errorf("Expected 1 generated narrative, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCheck("cli", "PermittedDevelopment", time.Millisecond)
	m.IncrementCacheLookup(true)
	m.IncrementRejected("decode")
	m.IncrementNarrative("failed")
}
