package internaldefs

import (
	"github.com/MrEthical07/goChatAuth/internal/metrics"
)

// CounterDef binds a counter to its exported name and help text.
type CounterDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram to its exported name and help text.
type HistogramDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: metrics.MetricSignInSuccess, Name: "gochatauth_signin_success_total", Help: "Successful anonymous sign-ins."},
	{ID: metrics.MetricSignInFailure, Name: "gochatauth_signin_failure_total", Help: "Failed anonymous sign-ins."},
	{ID: metrics.MetricReconnectSuccess, Name: "gochatauth_reconnect_success_total", Help: "Successful reconnects of a known user."},
	{ID: metrics.MetricReconnectFailure, Name: "gochatauth_reconnect_failure_total", Help: "Failed reconnects."},
	{ID: metrics.MetricValidateValid, Name: "gochatauth_validate_valid_total", Help: "Session validations answered valid."},
	{ID: metrics.MetricValidateInvalid, Name: "gochatauth_validate_invalid_total", Help: "Session validations answered invalid."},
	{ID: metrics.MetricValidateError, Name: "gochatauth_validate_error_total", Help: "Session validations that could not reach a verdict."},
	{ID: metrics.MetricRefreshExtended, Name: "gochatauth_refresh_extended_total", Help: "Refreshes that extended the current session."},
	{ID: metrics.MetricRefreshReauthenticated, Name: "gochatauth_refresh_reauthenticated_total", Help: "Refreshes that replaced the session identity."},
	{ID: metrics.MetricRefreshFallback, Name: "gochatauth_refresh_fallback_total", Help: "Refreshes recovered through anonymous sign-in."},
	{ID: metrics.MetricRefreshFailure, Name: "gochatauth_refresh_failure_total", Help: "Refreshes that left no new session."},
	{ID: metrics.MetricLogout, Name: "gochatauth_logout_total", Help: "Logout operations."},
	{ID: metrics.MetricLogoutNotifyFailure, Name: "gochatauth_logout_notify_failure_total", Help: "Logouts whose backend notification failed."},
	{ID: metrics.MetricRestoreSuccess, Name: "gochatauth_restore_success_total", Help: "Sessions restored from durable storage."},
	{ID: metrics.MetricRestoreMissing, Name: "gochatauth_restore_missing_total", Help: "Restores that found no complete session."},
	{ID: metrics.MetricRestoreStaleToken, Name: "gochatauth_restore_stale_token_total", Help: "Restored sessions whose token had already expired."},
	{ID: metrics.MetricStorageFailure, Name: "gochatauth_storage_failure_total", Help: "Durable storage reads or writes that failed."},
	{ID: metrics.MetricSupersededDiscarded, Name: "gochatauth_superseded_discarded_total", Help: "Lifecycle results discarded because a newer commit won."},
	{ID: metrics.MetricBackendCallFailure, Name: "gochatauth_backend_call_failure_total", Help: "Backend calls that failed in transport or returned non-2xx."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: metrics.MetricBackendLatency, Name: "gochatauth_backend_latency_seconds", Help: "Backend call latency histogram."},
}

// HistogramBounds are the upper bounds of metrics.BucketIndex, in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that cannot carry a
// label.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding or truncating.
func NormalizeBuckets(raw []uint64) [metrics.HistBucketCount]uint64 {
	var out [metrics.HistBucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [metrics.HistBucketCount]uint64) [metrics.HistBucketCount]uint64 {
	var out [metrics.HistBucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
