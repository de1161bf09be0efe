package fakebackend

import (
	"context"
	"net/http"
	"strings"
)

type identityContextKey struct{}

// IdentityFromContext returns the session a guarded request presented.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// guard enforces bearer auth on next while RequireAuth is on. A token must
// belong to a live session; the matching Identity is attached to the request
// context either way so handlers can fall back to it.
func (b *Backend) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			id    Identity
			found bool
		)
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			id, found = b.identityForToken(token)
		}

		if !found {
			if b.authRequired() {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (b *Backend) identityForToken(token string) (Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.sessions {
		if rec.Token == token {
			return rec.Identity, true
		}
	}
	return Identity{}, false
}

func (b *Backend) authRequired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requireAuth
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	return token, token != ""
}
