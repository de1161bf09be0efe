package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/session"
)

// SignInFailureKind classifies sign-in failures for root-level mapping.
type SignInFailureKind int

const (
	SignInFailureNone SignInFailureKind = iota
	SignInFailureTransport
	SignInFailureRejected
	SignInFailureIncomplete
	SignInFailureSuperseded
)

// SignInResult carries the committed session or failure metadata.
type SignInResult struct {
	Failure    SignInFailureKind
	Err        error
	StatusCode int
	Payload    AuthPayload
	Session    session.Session
	MirrorErr  error
}

// SignInDeps captures sign-in flow dependencies. Request is the backend call;
// the same flow serves anonymous sign-in and reconnect.
type SignInDeps struct {
	Request func(context.Context) api.Response[AuthPayload]
	State   *session.State
	Storage session.Storage
	Warn    func(string, ...any)
}

// RunSignIn requests a new identity and, on success, commits it to State and
// mirrors it to Storage. State is untouched on any failure.
func RunSignIn(ctx context.Context, deps SignInDeps) SignInResult {
	epoch := deps.State.Epoch()

	res := deps.Request(ctx)
	if !res.Success {
		return SignInResult{
			Failure:    classifyResponseFailure(res.StatusCode),
			Err:        errors.New(res.Error),
			StatusCode: res.StatusCode,
		}
	}
	if !res.Data.Success {
		msg := res.Data.Message
		if msg == "" {
			msg = "backend reported success=false"
		}
		return SignInResult{
			Failure:    SignInFailureRejected,
			Err:        errors.New(msg),
			StatusCode: res.StatusCode,
			Payload:    res.Data,
		}
	}

	sess, err := session.New(res.Data.UserID, res.Data.SessionID, res.Data.Token)
	if err != nil {
		return SignInResult{
			Failure:    SignInFailureIncomplete,
			Err:        err,
			StatusCode: res.StatusCode,
			Payload:    res.Data,
		}
	}

	applied, err := deps.State.SetIfEpoch(epoch, sess)
	if err != nil {
		return SignInResult{Failure: SignInFailureIncomplete, Err: err, Payload: res.Data}
	}
	if !applied {
		return SignInResult{
			Failure:    SignInFailureSuperseded,
			StatusCode: res.StatusCode,
			Payload:    res.Data,
		}
	}

	out := SignInResult{
		Failure:    SignInFailureNone,
		StatusCode: res.StatusCode,
		Payload:    res.Data,
		Session:    sess,
	}
	if err := session.Mirror(ctx, deps.Storage, sess); err != nil {
		out.MirrorErr = err
		warn(deps.Warn, "goChatAuth: session mirror write failed", "error", err)
	}
	return out
}

// classifyResponseFailure separates network/timeout failures (no status)
// from HTTP-level rejections.
func classifyResponseFailure(status int) SignInFailureKind {
	if status == 0 {
		return SignInFailureTransport
	}
	return SignInFailureRejected
}

func warn(fn func(string, ...any), msg string, args ...any) {
	if fn != nil {
		fn(msg, args...)
	}
}
