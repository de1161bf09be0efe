package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := bearerToken(tc.header)
		require.Equal(t, tc.ok, ok, "header %q", tc.header)
		require.Equal(t, tc.token, token, "header %q", tc.header)
	}
}

func TestGuardRejectsUnknownToken(t *testing.T) {
	b := New()
	srv := b.Start()
	defer srv.Close()
	b.RequireAuth(true)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/history/u1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer stale")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Len(t, b.RequestsFor(RouteHistory), 1)
}

func TestGuardAttachesIdentity(t *testing.T) {
	b := New()
	srv := b.Start()
	defer srv.Close()

	b.QueueIdentity(Identity{UserID: "u9", SessionID: "s9", Token: "tok9"})
	postJSON(t, srv.URL+"/auth/anonymous", "")

	// The chat body omits ids; the guard supplies them from the token.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat/", strings.NewReader(`{"message":"hello"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok9")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var reply map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "s9", reply["session_id"])

	resp, err = http.Get(srv.URL + "/auth/history/u9")
	require.NoError(t, err)
	var history struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	resp.Body.Close()
	require.Equal(t, 1, history.Count)
}
