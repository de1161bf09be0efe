package prometheus

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	goChatAuth "github.com/MrEthical07/goChatAuth"
	"github.com/MrEthical07/goChatAuth/metrics/export/internaldefs"
	"github.com/MrEthical07/goChatAuth/session"
)

const (
	auditDroppedName = "gochatauth_audit_dropped_total"
	auditDroppedHelp = "Audit events dropped by the dispatcher or lost to a failing sink."

	sessionActiveName = "gochatauth_session_active"
	sessionActiveHelp = "1 while the client holds a complete session, else 0."

	contentType = "text/plain; version=0.0.4; charset=utf-8"
)

type metricsSource interface {
	MetricsSnapshot() goChatAuth.MetricsSnapshot
	AuditDropped() uint64
}

// sessionSource is implemented by *goChatAuth.Client. Sources that also
// expose their session get the session_active gauge.
type sessionSource interface {
	Snapshot() session.Session
}

// PrometheusExporter renders client metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from client.
func NewPrometheusExporter(client *goChatAuth.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource creates an exporter from any value that
// exposes a metrics snapshot and an audit drop count.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render as text/plain.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics in exposition format, or "" when
// collection is disabled and no audit events were dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return ""
	}

	w := newExpositionWriter()
	for _, def := range internaldefs.CounterDefs {
		w.family(def.Name, def.Help, "counter")
		w.sample(def.Name, "", formatUint(snap.Counters[def.ID]))
	}

	for _, def := range internaldefs.HistogramDefs {
		cum := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[def.ID]))

		w.family(def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			w.sample(def.Name+"_bucket", `le="`+le+`"`, formatUint(cum[i]))
		}
		w.sample(def.Name+"_sum", "", strconv.FormatFloat(snap.Sums[def.ID].Seconds(), 'g', -1, 64))
		w.sample(def.Name+"_count", "", formatUint(cum[len(cum)-1]))
	}

	w.family(auditDroppedName, auditDroppedHelp, "counter")
	w.sample(auditDroppedName, "", formatUint(dropped))

	if ss, ok := p.source.(sessionSource); ok {
		active := "0"
		if ss.Snapshot().Complete() {
			active = "1"
		}
		w.family(sessionActiveName, sessionActiveHelp, "gauge")
		w.sample(sessionActiveName, "", active)
	}

	return w.String()
}

// expositionWriter appends metric families in text format 0.0.4.
type expositionWriter struct {
	buf bytes.Buffer
}

func newExpositionWriter() *expositionWriter {
	w := &expositionWriter{}
	w.buf.Grow(4096)
	return w
}

func (w *expositionWriter) family(name, help, kind string) {
	w.line("# HELP ", name, " ", helpEscaper.Replace(help))
	w.line("# TYPE ", name, " ", kind)
}

func (w *expositionWriter) sample(name, labels, value string) {
	if labels == "" {
		w.line(name, " ", value)
		return
	}
	w.line(name, "{", labels, "} ", value)
}

func (w *expositionWriter) line(parts ...string) {
	for _, part := range parts {
		w.buf.WriteString(part)
	}
	w.buf.WriteByte('\n')
}

func (w *expositionWriter) String() string { return w.buf.String() }

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
