package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when the token is not a three-segment JWT.
var ErrNotJWT = errors.New("token is not a jwt")

// Info is the subset of registered claims the client cares about.
type Info struct {
	Subject   string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes raw without verifying its signature.
func Inspect(raw string) (Info, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != 2 {
		return Info{}, ErrNotJWT
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return Info{}, errors.Join(ErrNotJWT, err)
	}

	info := Info{
		Subject:   c.Subject,
		SessionID: c.SessionID,
	}
	if c.IssuedAt != nil {
		info.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info, nil
}

// Expired reports whether raw carries an exp claim at or before now.
// known is false for opaque tokens and JWTs without exp.
func Expired(raw string, now time.Time) (expired bool, known bool) {
	info, err := Inspect(raw)
	if err != nil || info.ExpiresAt.IsZero() {
		return false, false
	}
	return !now.Before(info.ExpiresAt), true
}
