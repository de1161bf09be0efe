package goChatAuth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/internal/flows"
)

// ValidateSession asks the backend whether sessionID is live. Transport
// failures read as false. The client's own session is never modified.
func (c *Client) ValidateSession(ctx context.Context, sessionID string) bool {
	return c.ValidateSessionWithResult(ctx, sessionID).Valid
}

// ValidateSessionWithResult is ValidateSession with the backend's user id
// and message, and the reason when the check could not be made:
// [ErrTransport] when the backend was unreachable, [ErrBackendRejected] when
// it answered with an error status.
func (c *Client) ValidateSessionWithResult(ctx context.Context, sessionID string) SessionValidation {
	if !c.ready() {
		return SessionValidation{Err: ErrClientNotReady}
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		c.metricInc(MetricValidateError)
		return SessionValidation{Err: ErrNoSession}
	}

	r := flows.RunValidate(ctx, sessionID, c.flows.Validate)
	out := SessionValidation{Valid: r.Valid, UserID: r.UserID, Message: r.Message}
	switch {
	case r.Err != nil && r.StatusCode == 0:
		c.metricInc(MetricValidateError)
		out.Err = fmt.Errorf("%w: %v", ErrTransport, r.Err)
	case r.Err != nil:
		c.metricInc(MetricValidateError)
		out.Err = fmt.Errorf("%w: %v", ErrBackendRejected, r.Err)
	case r.Valid:
		c.metricInc(MetricValidateValid)
	default:
		c.metricInc(MetricValidateInvalid)
	}
	return out
}

// SessionInfo fetches the backend's summary of sessionID. Unknown or expired
// sessions, and any other failure, return an error wrapping
// [ErrBackendRejected] or [ErrTransport].
func (c *Client) SessionInfo(ctx context.Context, sessionID string) (*SessionSummary, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNoSession
	}

	res := api.Get[SessionSummary](ctx, c.api, routeSession+url.PathEscape(sessionID), nil)
	if !res.Success {
		if res.StatusCode == 0 {
			return nil, fmt.Errorf("%w: %s", ErrTransport, res.Error)
		}
		return nil, fmt.Errorf("%w: %s", ErrBackendRejected, res.Error)
	}
	if !res.Data.Valid {
		msg := res.Data.Message
		if msg == "" {
			msg = "session not valid"
		}
		return nil, fmt.Errorf("%w: %s", ErrBackendRejected, msg)
	}

	summary := res.Data
	return &summary, nil
}
