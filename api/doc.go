// Package api wraps net/http for calls against the chat backend.
//
// # Contract
//
// [Call] never returns an error. Transport failures, timeouts, non-2xx
// statuses and undecodable bodies all surface as a [Response] with
// Success=false and a human-readable Error string. Successful calls carry the
// decoded payload in Data.
//
// # What this package must NOT do
//
//   - Log request headers or bodies (they carry bearer tokens and user data).
//   - Hold session state or decide authorization policy.
//   - Import goChatAuth, session, chat, or newsletter.
package api
