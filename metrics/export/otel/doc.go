// Package otel publishes goChatAuth metrics through OpenTelemetry observable
// instruments on a Meter the caller owns.
//
// Counters become Int64ObservableCounter instruments. The latency histogram
// is flattened into cumulative per-bound gauges plus _count and a
// float64 _sum in seconds, because observable histograms do not exist in the
// API. One callback reads a single snapshot per collection so every
// instrument in a cycle agrees.
package otel
