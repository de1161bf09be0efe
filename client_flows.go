package goChatAuth

import (
	"context"
	"net/url"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/internal/flows"
)

// Backend routes used by the lifecycle methods.
const (
	routeAnonymous = "/auth/anonymous"
	routeValidate  = "/auth/validate/"
	routeRefresh   = "/auth/refresh/"
	routeLogout    = "/auth/logout/"
	routeSession   = "/auth/session/"
	routeReconnect = "/auth/reconnect/"
)

func (c *Client) wireFlows() flows.Deps {
	signIn := flows.SignInDeps{
		Request: func(ctx context.Context) api.Response[flows.AuthPayload] {
			return api.Post[flows.AuthPayload](ctx, c.api, routeAnonymous, nil, nil)
		},
		State:   c.state,
		Storage: c.storage,
		Warn:    c.warn,
	}

	// Request is bound per call because it carries the client UUID.
	reconnect := signIn
	reconnect.Request = nil

	return flows.Deps{
		SignIn:    signIn,
		Reconnect: reconnect,
		Validate: flows.ValidateDeps{
			Request: func(ctx context.Context, sessionID string) api.Response[flows.ValidationPayload] {
				return api.Get[flows.ValidationPayload](ctx, c.api, routeValidate+url.PathEscape(sessionID), nil)
			},
		},
		Refresh: flows.RefreshDeps{
			Request: func(ctx context.Context, sessionID string) api.Response[flows.RefreshPayload] {
				return api.Post[flows.RefreshPayload](ctx, c.api, routeRefresh+url.PathEscape(sessionID), nil, nil)
			},
			SignIn: func(ctx context.Context) flows.SignInResult {
				return flows.RunSignIn(ctx, signIn)
			},
			State:   c.state,
			Storage: c.storage,
			Warn:    c.warn,
		},
		Logout: flows.LogoutDeps{
			Request: func(ctx context.Context, sessionID string) api.Response[flows.AckPayload] {
				return api.Post[flows.AckPayload](ctx, c.api, routeLogout+url.PathEscape(sessionID), nil, nil)
			},
			State:   c.state,
			Storage: c.storage,
			Warn:    c.warn,
		},
		Restore: flows.RestoreDeps{
			State:   c.state,
			Storage: c.storage,
			Now:     c.now,
			Warn:    c.warn,
		},
	}
}
