// Package metrics counts session lifecycle outcomes and times backend calls.
//
// Every [MetricID] owns one padded slot so concurrent increments from
// different lifecycle operations do not share a cache line. Backend call
// latency lands in eight buckets sized for remote HTTP round trips (25ms up
// to 2.5s, then overflow) and a running nanosecond total that exporters
// render as the histogram sum.
//
// A disabled or nil *Metrics accepts every call and records nothing, so
// callers never branch on whether collection is on.
//
// Readers take a [Snapshot]; rendering it for Prometheus or OpenTelemetry
// happens in metrics/export. This package stays free of I/O and of imports
// from the rest of the module.
package metrics
