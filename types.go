package goChatAuth

import (
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goChatAuth/internal/audit"
	"github.com/MrEthical07/goChatAuth/internal/flows"
	internalmetrics "github.com/MrEthical07/goChatAuth/internal/metrics"
	"github.com/MrEthical07/goChatAuth/session"
)

// AnonymousAuthResponse is the body of POST /auth/anonymous and
// POST /auth/reconnect/{client_uuid}.
type AnonymousAuthResponse = flows.AuthPayload

// ValidationResponse is the body of GET /auth/validate/{session_id}.
type ValidationResponse = flows.ValidationPayload

// RefreshResponse is the body of POST /auth/refresh/{session_id}.
type RefreshResponse = flows.RefreshPayload

// LogoutResponse is the body of POST /auth/logout/{session_id}.
type LogoutResponse = flows.AckPayload

// RefreshOutcome distinguishes an extended session from a replaced identity.
type RefreshOutcome = flows.RefreshOutcome

const (
	// RefreshFailed means no usable session resulted; state is unchanged.
	RefreshFailed = flows.RefreshFailed
	// RefreshExtended means the same session was extended; state is unchanged.
	RefreshExtended = flows.RefreshExtended
	// RefreshReauthenticated means the client now holds a different identity,
	// either issued by the refresh endpoint or by the sign-in fallback.
	RefreshReauthenticated = flows.RefreshReauthenticated
)

// RefreshResult is returned by [Client.RefreshSessionWithResult].
type RefreshResult struct {
	Outcome RefreshOutcome
	// FellBack is true when the refresh itself failed and anonymous sign-in
	// was attempted.
	FellBack bool
	Session  session.Session
	Message  string
	// Err is set only when Outcome is RefreshFailed. It joins the refresh
	// cause with the fallback failure when both happened.
	Err error
}

// SessionValidation is returned by [Client.ValidateSessionWithResult].
type SessionValidation struct {
	Valid   bool
	UserID  string
	Message string
	// Err is set when the backend could not be asked; Valid is then false.
	Err error
}

// SessionSummary is the body of GET /auth/session/{session_id}. Timestamps
// are kept as sent because the backend may report "unknown".
type SessionSummary struct {
	Valid       bool   `json:"valid"`
	UserID      string `json:"user_id"`
	IsAnonymous bool   `json:"is_anonymous"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
	Message     string `json:"message,omitempty"`
}

// Expiry parses ExpiresAt. ok is false when the backend did not report a
// parseable timestamp.
func (s SessionSummary) Expiry() (time.Time, bool) {
	return parseBackendTime(s.ExpiresAt)
}

// Created parses CreatedAt.
func (s SessionSummary) Created() (time.Time, bool) {
	return parseBackendTime(s.CreatedAt)
}

func parseBackendTime(v string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AuditEvent is a structured lifecycle record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that writes events as structured log records.
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink]; a nil logger means slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.MetricID

const (
	MetricSignInSuccess          = internalmetrics.MetricSignInSuccess
	MetricSignInFailure          = internalmetrics.MetricSignInFailure
	MetricReconnectSuccess       = internalmetrics.MetricReconnectSuccess
	MetricReconnectFailure       = internalmetrics.MetricReconnectFailure
	MetricValidateValid          = internalmetrics.MetricValidateValid
	MetricValidateInvalid        = internalmetrics.MetricValidateInvalid
	MetricValidateError          = internalmetrics.MetricValidateError
	MetricRefreshExtended        = internalmetrics.MetricRefreshExtended
	MetricRefreshReauthenticated = internalmetrics.MetricRefreshReauthenticated
	MetricRefreshFallback        = internalmetrics.MetricRefreshFallback
	MetricRefreshFailure         = internalmetrics.MetricRefreshFailure
	MetricLogout                 = internalmetrics.MetricLogout
	MetricLogoutNotifyFailure    = internalmetrics.MetricLogoutNotifyFailure
	MetricRestoreSuccess         = internalmetrics.MetricRestoreSuccess
	MetricRestoreMissing         = internalmetrics.MetricRestoreMissing
	MetricRestoreStaleToken      = internalmetrics.MetricRestoreStaleToken
	MetricStorageFailure         = internalmetrics.MetricStorageFailure
	MetricSupersededDiscarded    = internalmetrics.MetricSupersededDiscarded
	MetricBackendCallFailure     = internalmetrics.MetricBackendCallFailure
	// MetricBackendLatency is the only histogram; it never appears in Counters.
	MetricBackendLatency = internalmetrics.MetricBackendLatency
)

// Metrics holds atomic counters and the optional latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When Enabled is false, all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
