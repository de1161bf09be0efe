// Package prometheus renders goChatAuth metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [goChatAuth.Client] and exposes an
// [http.Handler] for a /metrics route. Lifecycle counters are named
// gochatauth_*_total and backend call timing is the
// gochatauth_backend_latency_seconds histogram with a real _sum. A client
// source also reports gochatauth_session_active.
//
// Nothing is registered globally and the exporter never mutates the client.
package prometheus
