package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goChatAuth/api"
)

// ValidateResult is the read-only outcome of a session check. Err is set
// only when the check could not be performed; it never implies Valid.
// StatusCode is 0 when the backend was never reached.
type ValidateResult struct {
	Valid      bool
	UserID     string
	Message    string
	StatusCode int
	Err        error
}

// ValidateDeps captures validation flow dependencies.
type ValidateDeps struct {
	Request func(context.Context, string) api.Response[ValidationPayload]
}

// RunValidate asks the backend whether sessionID is live. It never mutates
// session state; transport failure reads as "not valid".
func RunValidate(ctx context.Context, sessionID string, deps ValidateDeps) ValidateResult {
	if sessionID == "" {
		return ValidateResult{Err: errors.New("empty session id")}
	}

	res := deps.Request(ctx, sessionID)
	if !res.Success {
		return ValidateResult{StatusCode: res.StatusCode, Err: errors.New(res.Error)}
	}
	return ValidateResult{
		Valid:      res.Data.Valid,
		UserID:     res.Data.UserID,
		Message:    res.Data.Message,
		StatusCode: res.StatusCode,
	}
}
