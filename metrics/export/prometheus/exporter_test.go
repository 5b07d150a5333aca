package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tokengate "github.com/tokengate/tokengate"
)

type fakeSource struct {
	snapshot tokengate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() tokengate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: tokengate.MetricsSnapshot{
			Counters: map[tokengate.MetricID]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCountersAndAuditDrops(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: tokengate.MetricsSnapshot{
			Counters: map[tokengate.MetricID]uint64{
				tokengate.MetricTokensRotated: 7,
				tokengate.MetricReuseDetected: 3,
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "tokengate_tokens_rotated_total 7") {
		t.Fatalf("expected tokens_rotated counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "tokengate_reuse_detected_total 3") {
		t.Fatalf("expected reuse_detected counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE tokengate_tokens_rotated_total counter") {
		t.Fatalf("expected TYPE line in output, got:\n%s", out)
	}
	if !strings.Contains(out, "tokengate_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: tokengate.MetricsSnapshot{
			Counters: map[tokengate.MetricID]uint64{tokengate.MetricTokensIssued: 1},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: tokengate.MetricsSnapshot{
			Counters: map[tokengate.MetricID]uint64{
				tokengate.MetricTokensIssued:    1000,
				tokengate.MetricTokensRotated:   800,
				tokengate.MetricRotateFailures:  10,
				tokengate.MetricTokensRevoked:   820,
				tokengate.MetricSessionsEvicted: 15,
				tokengate.MetricLoginSuccess:    1000,
				tokengate.MetricLoginFailure:    40,
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
