package goChatAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/goChatAuth/session"
)

const (
	auditEventSignInSuccess       = "signin_success"
	auditEventSignInFailure       = "signin_failure"
	auditEventReconnectSuccess    = "reconnect_success"
	auditEventReconnectFailure    = "reconnect_failure"
	auditEventRefreshExtended     = "refresh_extended"
	auditEventRefreshReauth       = "refresh_reauthenticated"
	auditEventRefreshFailure      = "refresh_failure"
	auditEventLogout              = "logout"
	auditEventRestoreSuccess      = "restore_success"
	auditEventRestoreStaleToken   = "restore_stale_token"
	auditEventStorageFailure      = "storage_failure"
	auditEventSupersededDiscarded = "superseded_discarded"
)

// AuditErrorCode is the stable error label carried in [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrTransport  AuditErrorCode = "transport"
	auditErrRejected   AuditErrorCode = "backend_rejected"
	auditErrIncomplete AuditErrorCode = "incomplete_identity"
	auditErrSuperseded AuditErrorCode = "superseded"
	auditErrNoSession  AuditErrorCode = "no_session"
	auditErrStorage    AuditErrorCode = "storage_unavailable"
	auditErrInternal   AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: c.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: redact(sessionID),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func (c *Client) emitStorageFailure(ctx context.Context, op string, err error) {
	c.metricInc(MetricStorageFailure)
	c.emitAudit(ctx, auditEventStorageFailure, false, "", "", err, func() map[string]string {
		return map[string]string{"op": op}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTransport):
		return auditErrTransport
	case errors.Is(err, ErrIncompleteIdentity), errors.Is(err, session.ErrPartialSession):
		return auditErrIncomplete
	case errors.Is(err, ErrBackendRejected):
		return auditErrRejected
	case errors.Is(err, ErrSessionSuperseded):
		return auditErrSuperseded
	case errors.Is(err, ErrNoSession):
		return auditErrNoSession
	case errors.Is(err, session.ErrStorageUnavailable):
		return auditErrStorage
	default:
		return auditErrInternal
	}
}
