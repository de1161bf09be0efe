package otel

import (
	"context"
	"errors"
	"fmt"

	goChatAuth "github.com/MrEthical07/goChatAuth"
	"github.com/MrEthical07/goChatAuth/internal/metrics"
	"github.com/MrEthical07/goChatAuth/metrics/export/internaldefs"
	"github.com/MrEthical07/goChatAuth/session"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goChatAuth.MetricsSnapshot
	AuditDropped() uint64
}

type sessionSource interface {
	Snapshot() session.Session
}

// latencyInstruments mirrors one histogram as cumulative bucket gauges plus
// count and sum.
type latencyInstruments struct {
	id      goChatAuth.MetricID
	buckets [metrics.HistBucketCount]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	sum     metric.Float64ObservableGauge
}

// OTelExporter publishes client metrics as observable instruments on a
// caller-supplied Meter. Values are read once per collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters      map[goChatAuth.MetricID]metric.Int64ObservableCounter
	latency       []latencyInstruments
	auditDropped  metric.Int64ObservableCounter
	sessionActive metric.Int64ObservableGauge
}

// NewOTelExporter registers instruments for client on meter.
func NewOTelExporter(meter metric.Meter, client *goChatAuth.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

// NewOTelExporterFromSource registers instruments for any metrics source.
// When source also exposes its session, a gochatauth_session_active gauge is
// registered too.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	r := &registrar{meter: meter}
	e := &OTelExporter{
		source:   source,
		counters: make(map[goChatAuth.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	for _, def := range internaldefs.CounterDefs {
		e.counters[def.ID] = r.counter(def.Name, def.Help)
	}
	for _, def := range internaldefs.HistogramDefs {
		li := latencyInstruments{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			li.buckets[i] = r.gauge(def.Name+"_bucket_le_"+suffix, "Cumulative count of calls at or under this bound.")
		}
		li.count = r.gauge(def.Name+"_count", "Backend calls observed.")
		li.sum = r.floatGauge(def.Name+"_sum", "Total seconds spent in backend calls.")
		e.latency = append(e.latency, li)
	}
	e.auditDropped = r.counter("gochatauth_audit_dropped_total", "Audit events dropped by the dispatcher or lost to a failing sink.")
	if _, ok := source.(sessionSource); ok {
		e.sessionActive = r.gauge("gochatauth_session_active", "1 while the client holds a complete session, else 0.")
	}
	if r.err != nil {
		return nil, r.err
	}

	reg, err := meter.RegisterCallback(e.observe, r.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snap.Counters[id]))
	}

	for _, li := range e.latency {
		cum := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[li.id]))
		for i, ins := range li.buckets {
			o.ObserveInt64(ins, int64(cum[i]))
		}
		o.ObserveInt64(li.count, int64(cum[len(cum)-1]))
		o.ObserveFloat64(li.sum, snap.Sums[li.id].Seconds())
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	if e.sessionActive != nil {
		var active int64
		if e.source.(sessionSource).Snapshot().Complete() {
			active = 1
		}
		o.ObserveInt64(e.sessionActive, active)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

// registrar creates instruments and keeps the first failure, so
// construction reads as a flat list.
type registrar struct {
	meter       metric.Meter
	observables []metric.Observable
	err         error
}

func (r *registrar) counter(name, help string) metric.Int64ObservableCounter {
	if r.err != nil {
		return nil
	}
	ins, err := r.meter.Int64ObservableCounter(name, metric.WithDescription(help))
	r.track(name, ins, err)
	return ins
}

func (r *registrar) gauge(name, help string) metric.Int64ObservableGauge {
	if r.err != nil {
		return nil
	}
	ins, err := r.meter.Int64ObservableGauge(name, metric.WithDescription(help))
	r.track(name, ins, err)
	return ins
}

func (r *registrar) floatGauge(name, help string) metric.Float64ObservableGauge {
	if r.err != nil {
		return nil
	}
	ins, err := r.meter.Float64ObservableGauge(name, metric.WithDescription(help), metric.WithUnit("s"))
	r.track(name, ins, err)
	return ins
}

func (r *registrar) track(name string, ins metric.Observable, err error) {
	if err != nil {
		r.err = fmt.Errorf("create instrument %s: %w", name, err)
		return
	}
	r.observables = append(r.observables, ins)
}
