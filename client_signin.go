package goChatAuth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/internal/flows"
)

// SignInAnonymously obtains a fresh anonymous identity from the backend and
// makes it current.
//
// On success the identity is committed and mirrored to durable storage; a
// mirror write failure is logged and does not fail the call. On failure the
// error wraps [ErrAuthentication] together with [ErrTransport],
// [ErrBackendRejected] or [ErrIncompleteIdentity], and the session is left
// unchanged. If another lifecycle operation commits first, the result is
// discarded and [ErrSessionSuperseded] is returned.
func (c *Client) SignInAnonymously(ctx context.Context) (*AnonymousAuthResponse, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	result := flows.RunSignIn(ctx, c.flows.SignIn)
	return c.finishSignIn(ctx, result, auditEventSignInSuccess, auditEventSignInFailure, MetricSignInSuccess, MetricSignInFailure)
}

// Reconnect resumes the identity of a previously issued user id with a new
// session. Semantics match [Client.SignInAnonymously].
func (c *Client) Reconnect(ctx context.Context, clientUUID string) (*AnonymousAuthResponse, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	clientUUID = strings.TrimSpace(clientUUID)
	if clientUUID == "" {
		c.metricInc(MetricReconnectFailure)
		return nil, fmt.Errorf("%w: empty client uuid", ErrAuthentication)
	}

	deps := c.flows.Reconnect
	deps.Request = func(ctx context.Context) api.Response[flows.AuthPayload] {
		return api.Post[flows.AuthPayload](ctx, c.api, routeReconnect+url.PathEscape(clientUUID), nil, nil)
	}
	result := flows.RunSignIn(ctx, deps)
	return c.finishSignIn(ctx, result, auditEventReconnectSuccess, auditEventReconnectFailure, MetricReconnectSuccess, MetricReconnectFailure)
}

// EnsureSession restores a mirrored session if one exists and otherwise
// signs in anonymously. It is a no-op when a session is already held.
func (c *Client) EnsureSession(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}
	if c.state.IsAuthenticated() {
		return nil
	}
	if c.RestoreSession(ctx) {
		return nil
	}
	_, err := c.SignInAnonymously(ctx)
	return err
}

func (c *Client) finishSignIn(
	ctx context.Context,
	result flows.SignInResult,
	successEvent, failureEvent string,
	successMetric, failureMetric MetricID,
) (*AnonymousAuthResponse, error) {
	if result.Failure == flows.SignInFailureNone {
		c.metricInc(successMetric)
		if result.MirrorErr != nil {
			c.emitStorageFailure(ctx, "mirror", result.MirrorErr)
		}
		c.emitAudit(ctx, successEvent, true, result.Session.UserID, result.Session.SessionID, nil, nil)
		c.logger.Debug("session committed",
			"event", successEvent,
			"user_id", result.Session.UserID,
			"session_id", redact(result.Session.SessionID),
		)
		payload := result.Payload
		return &payload, nil
	}

	err := mapSignInFailure(result)
	if result.Failure == flows.SignInFailureSuperseded {
		c.metricInc(MetricSupersededDiscarded)
		c.emitAudit(ctx, auditEventSupersededDiscarded, false, result.Payload.UserID, result.Payload.SessionID, err, func() map[string]string {
			return map[string]string{"operation": successEvent}
		})
		return nil, err
	}

	c.metricInc(failureMetric)
	c.emitAudit(ctx, failureEvent, false, "", "", err, func() map[string]string {
		if result.StatusCode == 0 {
			return nil
		}
		return map[string]string{"status": fmt.Sprint(result.StatusCode)}
	})
	return nil, err
}

func mapSignInFailure(result flows.SignInResult) error {
	switch result.Failure {
	case flows.SignInFailureNone:
		return nil
	case flows.SignInFailureTransport:
		return fmt.Errorf("%w: %w: %v", ErrAuthentication, ErrTransport, result.Err)
	case flows.SignInFailureRejected:
		return fmt.Errorf("%w: %w: %v", ErrAuthentication, ErrBackendRejected, result.Err)
	case flows.SignInFailureIncomplete:
		return fmt.Errorf("%w: %w", ErrAuthentication, ErrIncompleteIdentity)
	case flows.SignInFailureSuperseded:
		return ErrSessionSuperseded
	default:
		return ErrAuthentication
	}
}
