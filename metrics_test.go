package tokengate

import (
	"sync"
	"testing"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricTokensIssued)

	if got := m.Value(MetricTokensIssued); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := m.Snapshot(); len(got.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got.Counters)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricTokensIssued)
	m.Inc(MetricTokensIssued)
	m.Inc(MetricReuseDetected)

	if got := m.Value(MetricTokensIssued); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricReuseDetected); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.Inc(MetricTokensIssued)

	if m.Enabled() {
		t.Fatal("nil metrics must report disabled")
	}
	if got := m.Value(MetricTokensIssued); got != 0 {
		t.Fatalf("expected 0 from nil receiver, got %d", got)
	}
	if got := m.Snapshot(); got.Counters == nil {
		t.Fatal("expected non-nil counters map from nil receiver")
	}
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricTokensRotated)

	snap := m.Snapshot()
	m.Inc(MetricTokensRotated)

	if snap.Counters[MetricTokensRotated] != 1 {
		t.Fatalf("snapshot mutated after the fact: %v", snap.Counters)
	}
	if m.Value(MetricTokensRotated) != 2 {
		t.Fatalf("expected live value 2, got %d", m.Value(MetricTokensRotated))
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricBlacklistHits)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricBlacklistHits); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestMetricIDNames(t *testing.T) {
	cases := map[MetricID]string{
		MetricTokensIssued:    "tokens_issued",
		MetricTokensRotated:   "tokens_rotated",
		MetricRotateFailures:  "rotate_failures",
		MetricReuseDetected:   "reuse_detected",
		MetricTheftDetected:   "theft_detected",
		MetricTokensRevoked:   "tokens_revoked",
		MetricSessionsEvicted: "sessions_evicted",
		MetricBlacklistHits:   "blacklist_hits",
		MetricLoginSuccess:    "login_success",
		MetricLoginFailure:    "login_failure",
		metricIDCount:         "unknown",
	}
	for id, want := range cases {
		if got := id.Name(); got != want {
			t.Fatalf("Name(%d) = %q, want %q", id, got, want)
		}
	}
}
