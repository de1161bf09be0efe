package goChatAuth

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/chat"
	internalaudit "github.com/MrEthical07/goChatAuth/internal/audit"
	"github.com/MrEthical07/goChatAuth/internal/flows"
	"github.com/MrEthical07/goChatAuth/newsletter"
	"github.com/MrEthical07/goChatAuth/session"
)

// Client owns one session identity and the domain clients that use it.
//
// Methods are safe for concurrent use. Lifecycle operations that overlap are
// resolved by commit order: a completion whose view of the session is stale
// is discarded with [ErrSessionSuperseded].
type Client struct {
	config       Config
	api          *api.Client
	state        *session.State
	storage      session.Storage
	closeStorage func() error
	logger       *slog.Logger
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	chat         *chat.Client
	newsletter   *newsletter.Client
	flows        flows.Deps
	now          func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
}

// Close flushes pending audit events and releases a Redis connection the
// Client opened itself. The session is left as-is.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.audit != nil {
			c.audit.Close()
		}
		if c.closeStorage != nil {
			err = c.closeStorage()
		}
	})
	return err
}

func (c *Client) ready() bool {
	return c != nil && c.state != nil && !c.closed.Load()
}

// State exposes the live session store. Callers should treat it as
// read-only; lifecycle methods own every write.
func (c *Client) State() *session.State {
	if c == nil {
		return nil
	}
	return c.state
}

// Snapshot returns a copy of the current session.
func (c *Client) Snapshot() session.Session {
	if c == nil || c.state == nil {
		return session.Session{}
	}
	return c.state.Snapshot()
}

// Storage returns the durable mirror, or nil when none is configured.
func (c *Client) Storage() session.Storage {
	if c == nil {
		return nil
	}
	return c.storage
}

// Chat returns the chat client bound to this session's token.
func (c *Client) Chat() *chat.Client {
	if c == nil {
		return nil
	}
	return c.chat
}

// Newsletter returns the newsletter client.
func (c *Client) Newsletter() *newsletter.Client {
	if c == nil {
		return nil
	}
	return c.newsletter
}

// API returns the underlying HTTP wrapper for endpoints without a typed client.
func (c *Client) API() *api.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// AuditDropped reports events discarded under dispatcher backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// AuditDelivered reports events the audit sink accepted.
func (c *Client) AuditDelivered() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Delivered()
}

// MetricsSnapshot returns a copy of all counters and histograms.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
			Sums:       map[MetricID]time.Duration{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// observeCall is the api.Client hook feeding backend latency metrics.
func (c *Client) observeCall(_ string, d time.Duration, ok bool) {
	c.metrics.Observe(MetricBackendLatency, d)
	if !ok {
		c.metrics.Inc(MetricBackendCallFailure)
	}
}

func (c *Client) warn(msg string, args ...any) {
	c.logger.Warn(msg, args...)
}
