package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSettleHost: 7,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricHandshakeLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "gosession_settle_host_total 7") {
		t.Fatalf("expected settle_host counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_handshake_latency_seconds_bucket{le=\"0.01\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_handshake_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

type postureFakeSource struct {
	fakeSource
	report goSession.SessionReport
}

func (f postureFakeSource) Introspect() goSession.SessionReport { return f.report }

func TestRenderAppendsPostureGaugesForIntrospectableSource(t *testing.T) {
	exp := NewPrometheusExporterFromSource(postureFakeSource{
		fakeSource: fakeSource{
			snapshot: goSession.MetricsSnapshot{
				Counters:   map[goSession.MetricID]uint64{goSession.MetricSettleStored: 1},
				Histograms: map[goSession.MetricID][]uint64{},
			},
		},
		report: goSession.SessionReport{
			Settled:       true,
			Authenticated: true,
			StateVersion:  3,
		},
	})

	out := exp.Render()
	if !strings.Contains(out, "gosession_session_settled 1") {
		t.Fatalf("expected settled gauge, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_session_authenticated 1") {
		t.Fatalf("expected authenticated gauge, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_refresh_in_flight 0") {
		t.Fatalf("expected refresh gauge, got:\n%s", out)
	}
	if !strings.Contains(out, "gosession_state_version 3") {
		t.Fatalf("expected state version gauge, got:\n%s", out)
	}
}

func TestRenderOmitsPostureGaugesForPlainSource(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricSettleStored: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if out := exp.Render(); strings.Contains(out, "gosession_session_settled") {
		t.Fatalf("expected no posture gauges for plain source, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricSettleHost: 1},
			Histograms: map[goSession.MetricID][]uint64{},
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
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricHandshakeSettled: 1000,
				goSession.MetricSettleHost:       700,
				goSession.MetricSettleStored:     250,
				goSession.MetricSettleTimeout:    50,
				goSession.MetricResolveSuccess:   940,
				goSession.MetricRefreshSuccess:   800,
				goSession.MetricRefreshFailure:   10,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricHandshakeLatency: {10, 20, 30, 40, 50, 60, 70, 80},
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
