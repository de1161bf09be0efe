package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goChatAuth/session"
	"github.com/MrEthical07/goChatAuth/token"
)

// RestoreFailureKind classifies why a restore did not commit.
type RestoreFailureKind int

const (
	RestoreFailureNone RestoreFailureKind = iota
	RestoreFailureNoStorage
	RestoreFailureMissing
	RestoreFailureStorage
	RestoreFailureSuperseded
)

// RestoreResult reports whether a mirrored session was adopted.
type RestoreResult struct {
	Restored   bool
	Failure    RestoreFailureKind
	Session    session.Session
	StaleToken bool
	ExpiresAt  time.Time
	Err        error
}

// RestoreDeps captures restore flow dependencies. A nil Storage means the
// process has no durable client storage.
type RestoreDeps struct {
	State   *session.State
	Storage session.Storage
	Now     func() time.Time
	Warn    func(string, ...any)
}

// RunRestore adopts the mirrored identity if all three keys are present.
// The backend is not consulted; an expired JWT is flagged but still adopted.
func RunRestore(ctx context.Context, deps RestoreDeps) RestoreResult {
	if deps.Storage == nil {
		return RestoreResult{Failure: RestoreFailureNoStorage}
	}

	epoch := deps.State.Epoch()
	sess, ok, err := session.Load(ctx, deps.Storage)
	if err != nil {
		warn(deps.Warn, "goChatAuth: session mirror read failed", "error", err)
		return RestoreResult{Failure: RestoreFailureStorage, Err: err}
	}
	if !ok {
		return RestoreResult{Failure: RestoreFailureMissing}
	}

	applied, err := deps.State.SetIfEpoch(epoch, sess)
	if err != nil {
		return RestoreResult{Failure: RestoreFailureMissing, Err: err}
	}
	if !applied {
		return RestoreResult{Failure: RestoreFailureSuperseded}
	}

	out := RestoreResult{Restored: true, Session: sess}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if expired, known := token.Expired(sess.AuthToken, now()); known && expired {
		out.StaleToken = true
		if info, err := token.Inspect(sess.AuthToken); err == nil {
			out.ExpiresAt = info.ExpiresAt
		}
		warn(deps.Warn, "goChatAuth: restored session token already expired", "expires_at", out.ExpiresAt)
	}
	return out
}
