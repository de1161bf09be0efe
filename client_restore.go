package goChatAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/goChatAuth/internal/flows"
)

// RestoreSession adopts the identity mirrored in durable storage.
//
// It returns true only when all three identifiers were present. Without
// durable storage it is a no-op returning false. The backend is not
// consulted; callers that need certainty follow up with
// [Client.ValidateSession]. A JWT whose exp has already passed is still
// restored, but logged and audited as restore_stale_token.
func (c *Client) RestoreSession(ctx context.Context) bool {
	if !c.ready() {
		return false
	}

	r := flows.RunRestore(ctx, c.flows.Restore)
	switch r.Failure {
	case flows.RestoreFailureNone:
	case flows.RestoreFailureNoStorage:
		return false
	case flows.RestoreFailureStorage:
		c.emitStorageFailure(ctx, "load", r.Err)
		return false
	case flows.RestoreFailureSuperseded:
		c.metricInc(MetricSupersededDiscarded)
		c.emitAudit(ctx, auditEventSupersededDiscarded, false, "", "", ErrSessionSuperseded, func() map[string]string {
			return map[string]string{"operation": "restore"}
		})
		return false
	default:
		c.metricInc(MetricRestoreMissing)
		return false
	}

	c.metricInc(MetricRestoreSuccess)
	c.emitAudit(ctx, auditEventRestoreSuccess, true, r.Session.UserID, r.Session.SessionID, nil, nil)
	if r.StaleToken {
		c.metricInc(MetricRestoreStaleToken)
		c.emitAudit(ctx, auditEventRestoreStaleToken, true, r.Session.UserID, r.Session.SessionID, nil, func() map[string]string {
			return map[string]string{"expires_at": r.ExpiresAt.UTC().Format(time.RFC3339)}
		})
	}
	return true
}
