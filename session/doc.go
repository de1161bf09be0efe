// Package session holds the client-side session state and its durable mirror.
//
// # State
//
// [State] is the authoritative in-memory identity for one client: user ID,
// session ID, bearer token and the authenticated flag. It is owned by whoever
// constructs it and passed by reference to collaborators. Commits are
// all-or-nothing: a [Session] is either fully populated or empty.
//
// Every commit advances a monotonically increasing epoch. Long-running
// operations capture the epoch before suspending on the network and commit
// with [State.SetIfEpoch]; a completion that lost the race to a newer commit
// is discarded.
//
// # Storage
//
// [Storage] is the durable key/value mirror (user_id, session_id, auth_token).
// It is never the source of truth while a process is alive. [MemoryStorage]
// and the Redis-backed [RedisStorage] are provided.
//
// # What this package must NOT do
//
//   - Perform HTTP calls or interpret backend responses.
//   - Import goChatAuth, api, chat, or newsletter (no upward imports).
package session
