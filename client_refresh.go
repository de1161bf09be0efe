package goChatAuth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goChatAuth/internal/flows"
)

// RefreshSession extends sessionID and reports whether the client still
// holds a usable session afterwards. Use [Client.RefreshSessionWithResult]
// to tell an extension apart from a silent identity change.
func (c *Client) RefreshSession(ctx context.Context, sessionID string) bool {
	return c.RefreshSessionWithResult(ctx, sessionID).Outcome != RefreshFailed
}

// RefreshSessionWithResult asks the backend to extend sessionID.
//
//   - Backend extends the session: RefreshExtended, nothing is mutated.
//   - Backend issues a new session: it is committed and mirrored,
//     RefreshReauthenticated.
//   - Refresh fails (transport or success=false): anonymous sign-in is
//     attempted. Success gives RefreshReauthenticated with FellBack set;
//     failure gives RefreshFailed with both causes joined in Err.
//
// A refresh overtaken by a concurrent logout or sign-in is discarded with
// [ErrSessionSuperseded] and never falls back.
func (c *Client) RefreshSessionWithResult(ctx context.Context, sessionID string) RefreshResult {
	if !c.ready() {
		return RefreshResult{Outcome: RefreshFailed, Err: ErrClientNotReady}
	}

	r := flows.RunRefresh(ctx, sessionID, c.flows.Refresh)
	out := RefreshResult{
		Outcome:  r.Outcome,
		FellBack: r.FellBack,
		Session:  r.Session,
		Message:  r.Message,
	}

	switch r.Outcome {
	case flows.RefreshExtended:
		c.metricInc(MetricRefreshExtended)
		c.emitAudit(ctx, auditEventRefreshExtended, true, c.state.UserID(), sessionID, nil, nil)
		return out

	case flows.RefreshReauthenticated:
		c.metricInc(MetricRefreshReauthenticated)
		if r.FellBack {
			c.metricInc(MetricRefreshFallback)
			c.logger.Info("refresh fell back to anonymous sign-in",
				"previous_session_id", redact(sessionID),
				"session_id", redact(r.Session.SessionID),
				"cause", r.RefreshErr,
			)
		}
		if r.MirrorErr != nil {
			c.emitStorageFailure(ctx, "mirror", r.MirrorErr)
		}
		c.emitAudit(ctx, auditEventRefreshReauth, true, r.Session.UserID, r.Session.SessionID, nil, func() map[string]string {
			return map[string]string{
				"fell_back":           strconv.FormatBool(r.FellBack),
				"previous_session_id": redact(sessionID),
			}
		})
		return out
	}

	switch r.Failure {
	case flows.RefreshFailureEmptySession:
		out.Err = ErrNoSession
	case flows.RefreshFailureSuperseded:
		out.Err = ErrSessionSuperseded
		c.metricInc(MetricSupersededDiscarded)
		c.emitAudit(ctx, auditEventSupersededDiscarded, false, "", sessionID, out.Err, func() map[string]string {
			return map[string]string{"operation": "refresh"}
		})
		return out
	case flows.RefreshFailureFallback:
		fallbackErr := mapSignInFailure(flows.SignInResult{Failure: r.FallbackFailure, Err: r.Err})
		out.Err = errors.Join(refreshCause(r.RefreshErr), fallbackErr)
	default:
		out.Err = refreshCause(r.RefreshErr)
	}

	c.metricInc(MetricRefreshFailure)
	c.emitAudit(ctx, auditEventRefreshFailure, false, "", sessionID, out.Err, func() map[string]string {
		return map[string]string{"fell_back": strconv.FormatBool(r.FellBack)}
	})
	return out
}

func refreshCause(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("refresh session: %v", err)
}
