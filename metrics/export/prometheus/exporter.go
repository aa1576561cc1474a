package prometheus

import (
	"fmt"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// postureSource is the optional capability behind the session posture
// gauges. A full [goSession.Manager] provides it; plain snapshot
// sources render counters and the latency histogram only.
type postureSource interface {
	Introspect() goSession.SessionReport
}

const (
	auditDroppedName = "gosession_audit_dropped_total"
	auditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// PrometheusExporter renders goSession metrics in Prometheus text exposition format.
//
//	Docs: docs/metrics.md
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the given [goSession.Manager].
//
//	Docs: docs/metrics.md
func NewPrometheusExporter(manager *goSession.Manager) *PrometheusExporter {
	return &PrometheusExporter{source: manager}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from a
// custom snapshot source.
//
//	Docs: docs/metrics.md
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Prometheus metrics.
//
//	Docs: docs/metrics.md
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics in Prometheus text exposition format.
// Counters and the handshake latency histogram come from the metrics
// snapshot; when the source is a full manager, the session posture
// gauges are appended from its introspection report.
//
//	Docs: docs/metrics.md
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		family(&b, def.Name, def.Help, "counter")
		fmt.Fprintf(&b, "%s %d\n", def.Name, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.Cumulative(snapshot.Histograms[def.ID])
		family(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramLe {
			fmt.Fprintf(&b, "%s_bucket{le=%q} %d\n", def.Name, le, cumulative[i])
		}
		fmt.Fprintf(&b, "%s_count %d\n", def.Name, cumulative[len(cumulative)-1])
		// Core snapshots carry bucket counts, not sums; keep a stable
		// field so scrapers see a complete histogram family.
		fmt.Fprintf(&b, "%s_sum 0\n", def.Name)
	}

	family(&b, auditDroppedName, auditDroppedHelp, "counter")
	fmt.Fprintf(&b, "%s %d\n", auditDroppedName, dropped)

	if ps, ok := p.source.(postureSource); ok {
		report := ps.Introspect()
		for _, def := range internaldefs.PostureDefs {
			family(&b, def.Name, def.Help, "gauge")
			fmt.Fprintf(&b, "%s %d\n", def.Name, def.Value(report))
		}
	}

	return b.String()
}

func family(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, escapeHelp(help))
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
