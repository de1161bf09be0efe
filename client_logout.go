package goChatAuth

import (
	"context"
	"strconv"

	"github.com/MrEthical07/goChatAuth/internal/flows"
)

// Logout ends the current session. The backend is notified best-effort when
// a session id is held; the in-memory session and the durable mirror are
// cleared regardless, so the client always ends unauthenticated.
//
// Any sign-in or refresh still in flight when Logout commits is discarded.
// On a closed Client the backend is not contacted but local cleanup runs.
func (c *Client) Logout(ctx context.Context) {
	if c == nil || c.state == nil {
		return
	}

	deps := c.flows.Logout
	if c.closed.Load() {
		deps.Request = nil
	}

	userID := c.state.UserID()
	r := flows.RunLogout(ctx, deps)

	c.metricInc(MetricLogout)
	if r.NotifyErr != nil {
		c.metricInc(MetricLogoutNotifyFailure)
	}
	if r.StorageErr != nil {
		c.emitStorageFailure(ctx, "forget", r.StorageErr)
	}
	c.emitAudit(ctx, auditEventLogout, true, userID, r.SessionID, nil, func() map[string]string {
		m := map[string]string{"notified": strconv.FormatBool(r.Notified)}
		if r.NotifyErr != nil {
			m["notify_error"] = r.NotifyErr.Error()
		}
		return m
	})
}
