// Package goChatAuth is the client SDK for the portfolio chat backend: it
// owns one anonymous session identity and the domain clients that act on
// its behalf.
//
// A [Client] is assembled with [Builder] and is safe to use from multiple
// goroutines. Lifecycle methods (SignInAnonymously, RefreshSession, Logout,
// RestoreSession, Reconnect) are the only writers of the session; chat calls
// read its bearer token at request time.
//
// # Architecture boundaries
//
// goChatAuth is the public surface. It exposes [Client], [Builder], [Config]
// and value types (RefreshResult, SessionSummary, MetricsSnapshot). Flow
// orchestration, audit dispatch and metric storage live under internal/.
// The HTTP wrapper (api), the session store (session) and the domain
// clients (chat, newsletter) are importable on their own.
//
// # What this package must NOT do
//
//   - Log or audit bearer tokens, or full session identifiers.
//   - Treat durable storage as authoritative; it is a mirror of the
//     in-memory session and its failures never fail a lifecycle call.
//   - Let a lifecycle completion overwrite a newer commit.
//   - Import any sub-package that re-imports goChatAuth.
package goChatAuth
