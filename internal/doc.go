// Package internal holds the implementation pieces of goChatAuth that are
// not part of its public surface.
//
// # Sub-packages
//
//   - audit: async lifecycle event dispatch (Dispatcher and Sink implementations)
//   - fakebackend: in-process chat backend used by tests, the CLI demo and examples
//   - flows: orchestration for sign-in, validate, refresh, logout and restore
//   - metrics: lock-free counters and the backend latency histogram
//
// # What this package must NOT do
//
//   - Export types that appear in the public goChatAuth API except through
//     root aliases.
//   - Be imported by any package outside the goChatAuth module.
package internal
