package tokengate

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricTokensIssued MetricID = iota
	MetricTokensRotated
	MetricRotateFailures
	MetricReuseDetected
	MetricTheftDetected
	MetricTokensRevoked
	MetricSessionsEvicted
	MetricBlacklistHits
	MetricLoginSuccess
	MetricLoginFailure
	metricIDCount
)

const cacheLineSize = 64

// counters are padded so hot-path increments on different IDs do not
// share a cache line.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's atomic counters. A nil or disabled
// receiver ignores all updates.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	return s
}

// Name returns the stable exported name of a counter.
func (id MetricID) Name() string {
	switch id {
	case MetricTokensIssued:
		return "tokens_issued"
	case MetricTokensRotated:
		return "tokens_rotated"
	case MetricRotateFailures:
		return "rotate_failures"
	case MetricReuseDetected:
		return "reuse_detected"
	case MetricTheftDetected:
		return "theft_detected"
	case MetricTokensRevoked:
		return "tokens_revoked"
	case MetricSessionsEvicted:
		return "sessions_evicted"
	case MetricBlacklistHits:
		return "blacklist_hits"
	case MetricLoginSuccess:
		return "login_success"
	case MetricLoginFailure:
		return "login_failure"
	default:
		return "unknown"
	}
}
