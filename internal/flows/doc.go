// Package flows contains the session lifecycle orchestration used by the root
// goChatAuth client.
//
// Each flow is a plain function over a Deps struct and returns a Result that
// classifies failures; the root package maps those classifications to its
// public errors, metrics and audit events. Flows never import the root
// package.
package flows
