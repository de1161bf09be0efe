package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/session"
)

// RefreshOutcome distinguishes "same session, extended" from "silently became
// a new identity".
type RefreshOutcome int

const (
	RefreshFailed RefreshOutcome = iota
	RefreshExtended
	RefreshReauthenticated
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshExtended:
		return "extended"
	case RefreshReauthenticated:
		return "reauthenticated"
	default:
		return "failed"
	}
}

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureEmptySession
	RefreshFailureSuperseded
	RefreshFailureFallback
)

// RefreshResult carries the outcome and, when a new identity was adopted,
// the committed session.
type RefreshResult struct {
	Outcome    RefreshOutcome
	Failure    RefreshFailureKind
	FellBack   bool
	Session    session.Session
	Message    string
	Err        error
	RefreshErr error
	MirrorErr  error

	// FallbackFailure classifies Err when the sign-in fallback failed.
	FallbackFailure SignInFailureKind
}

// RefreshDeps captures refresh flow dependencies. SignIn is the anonymous
// sign-in fallback.
type RefreshDeps struct {
	Request func(context.Context, string) api.Response[RefreshPayload]
	SignIn  func(context.Context) SignInResult
	State   *session.State
	Storage session.Storage
	Warn    func(string, ...any)
}

// RunRefresh extends sessionID. A backend-issued new session replaces the
// current identity; a failed refresh falls back to anonymous sign-in.
func RunRefresh(ctx context.Context, sessionID string, deps RefreshDeps) RefreshResult {
	if sessionID == "" {
		return RefreshResult{
			Outcome: RefreshFailed,
			Failure: RefreshFailureEmptySession,
			Err:     errors.New("empty session id"),
		}
	}

	epoch := deps.State.Epoch()
	res := deps.Request(ctx, sessionID)

	var cause error
	switch {
	case !res.Success:
		cause = errors.New(res.Error)
	case !res.Data.Success:
		msg := res.Data.Message
		if msg == "" {
			msg = "backend reported success=false"
		}
		cause = errors.New(msg)
	case !res.Data.NewSession:
		return RefreshResult{Outcome: RefreshExtended, Message: res.Data.Message}
	default:
		sess, err := session.New(res.Data.UserID, res.Data.SessionID, res.Data.Token)
		if err != nil {
			cause = err
			break
		}
		applied, err := deps.State.SetIfEpoch(epoch, sess)
		if err != nil {
			cause = err
			break
		}
		if !applied {
			return RefreshResult{
				Outcome: RefreshFailed,
				Failure: RefreshFailureSuperseded,
				Message: res.Data.Message,
			}
		}
		out := RefreshResult{
			Outcome: RefreshReauthenticated,
			Session: sess,
			Message: res.Data.Message,
		}
		if err := session.Mirror(ctx, deps.Storage, sess); err != nil {
			out.MirrorErr = err
			warn(deps.Warn, "goChatAuth: session mirror write failed", "error", err)
		}
		return out
	}

	// Another lifecycle operation committed while the refresh was in flight;
	// re-authenticating now would override it.
	if deps.State.Epoch() != epoch {
		return RefreshResult{
			Outcome:    RefreshFailed,
			Failure:    RefreshFailureSuperseded,
			RefreshErr: cause,
		}
	}

	warn(deps.Warn, "goChatAuth: refresh failed, falling back to anonymous sign-in", "error", cause)
	fb := deps.SignIn(ctx)
	if fb.Failure == SignInFailureNone {
		return RefreshResult{
			Outcome:    RefreshReauthenticated,
			FellBack:   true,
			Session:    fb.Session,
			RefreshErr: cause,
			MirrorErr:  fb.MirrorErr,
		}
	}
	if fb.Failure == SignInFailureSuperseded {
		return RefreshResult{
			Outcome:    RefreshFailed,
			Failure:    RefreshFailureSuperseded,
			FellBack:   true,
			RefreshErr: cause,
		}
	}
	return RefreshResult{
		Outcome:         RefreshFailed,
		Failure:         RefreshFailureFallback,
		FellBack:        true,
		Err:             fb.Err,
		RefreshErr:      cause,
		FallbackFailure: fb.Failure,
	}
}
