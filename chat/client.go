// Package chat calls the backend's chat and chat-history endpoints.
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MrEthical07/goChatAuth/api"
)

// DefaultHistoryLimit matches the backend's default page size.
const DefaultHistoryLimit = 50

// TokenSource yields the current bearer token, or "" when unauthenticated.
type TokenSource interface {
	Token() string
}

// Message is the body of POST /chat/.
type Message struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Reply is the backend's classified chat response. Data is left raw because
// its shape depends on Type.
type Reply struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	SessionID string          `json:"session_id"`
}

// Text returns Data as a string when the backend sent a plain string.
func (r Reply) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(r.Data, &s); err != nil {
		return "", false
	}
	return s, true
}

// HistoryEntry is one stored message/response pair.
type HistoryEntry struct {
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	Message     string    `json:"message"`
	Response    string    `json:"response"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// History is the body of GET /auth/history/{client_uuid}.
type History struct {
	Success bool           `json:"success"`
	History []HistoryEntry `json:"history"`
	Count   int            `json:"count"`
}

// Client issues chat requests with the session's bearer token.
type Client struct {
	api    *api.Client
	tokens TokenSource
}

// New binds a chat client to an api client and a token source.
func New(c *api.Client, tokens TokenSource) *Client {
	return &Client{api: c, tokens: tokens}
}

func (c *Client) authHeaders() map[string]string {
	headers := map[string]string{}
	if c.tokens == nil {
		return headers
	}
	if tok := c.tokens.Token(); tok != "" {
		headers["Authorization"] = "Bearer " + tok
	}
	return headers
}

// Send posts one message. The Authorization header is omitted entirely when
// no token is held; the backend decides whether that is acceptable.
func (c *Client) Send(ctx context.Context, msg Message) api.Response[Reply] {
	return api.Post[Reply](ctx, c.api, "/chat/", msg, c.authHeaders())
}

// History fetches stored messages for clientUUID, newest first.
func (c *Client) History(ctx context.Context, clientUUID string, limit int) api.Response[History] {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return api.Call[History](ctx, c.api, "/auth/history/"+url.PathEscape(clientUUID), api.Options{
		Method:  http.MethodGet,
		Params:  map[string]string{"limit": strconv.Itoa(limit)},
		Headers: c.authHeaders(),
	})
}
