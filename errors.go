package goChatAuth

import "errors"

var (
	// ErrAuthentication wraps every failed sign-in or reconnect. The cause
	// (ErrTransport or ErrBackendRejected) is joined underneath.
	ErrAuthentication = errors.New("authentication failed")
	// ErrBackendRejected marks a non-2xx response or a success=false body.
	ErrBackendRejected = errors.New("backend rejected request")
	// ErrTransport marks a network, timeout or decode failure with no usable status.
	ErrTransport = errors.New("backend unreachable")
	// ErrIncompleteIdentity is returned when the backend reports success but
	// omits one of user_id, session_id or token.
	ErrIncompleteIdentity = errors.New("backend returned incomplete identity")
	// ErrSessionSuperseded is returned when another lifecycle operation
	// committed while this one was in flight; the stale result was discarded.
	ErrSessionSuperseded = errors.New("session superseded by concurrent operation")
	// ErrClientNotReady is returned by methods called on a nil or closed Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrNoSession is returned when an operation needs a session id and none is set.
	ErrNoSession = errors.New("no active session")
)
