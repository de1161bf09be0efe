// Package token reads claims from backend-issued bearer tokens without
// verifying their signature.
//
// The client never holds the backend's signing key; inspection is used only
// for diagnostics such as flagging a restored token whose expiry has passed.
// Opaque (non-JWT) tokens are reported as not inspectable rather than as
// errors.
package token
