package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/session"
)

// LogoutResult reports side effects of a logout. Local state is always
// cleared; NotifyErr and StorageErr are informational.
type LogoutResult struct {
	SessionID  string
	Notified   bool
	NotifyErr  error
	StorageErr error
}

// LogoutDeps captures logout flow dependencies. A nil Request skips the
// backend notification; local cleanup still runs.
type LogoutDeps struct {
	Request func(context.Context, string) api.Response[AckPayload]
	State   *session.State
	Storage session.Storage
	Warn    func(string, ...any)
}

// RunLogout notifies the backend when a session id is known, then clears
// in-memory and mirrored state regardless of the notification outcome.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	out := LogoutResult{SessionID: deps.State.SessionID()}

	if out.SessionID != "" && deps.Request != nil {
		res := deps.Request(ctx, out.SessionID)
		switch {
		case !res.Success:
			out.NotifyErr = errors.New(res.Error)
		case !res.Data.Success:
			out.NotifyErr = errors.New("backend reported success=false")
		default:
			out.Notified = true
		}
		if out.NotifyErr != nil {
			warn(deps.Warn, "goChatAuth: logout notification failed", "error", out.NotifyErr)
		}
	}

	deps.State.Clear()
	if err := session.Forget(ctx, deps.Storage); err != nil {
		out.StorageErr = err
		warn(deps.Warn, "goChatAuth: session mirror clear failed", "error", err)
	}
	return out
}
