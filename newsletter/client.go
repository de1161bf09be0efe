// Package newsletter calls the backend's newsletter subscription endpoints.
package newsletter

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/MrEthical07/goChatAuth/api"
)

// Subscription is the body of POST /newsletter/subscribe.
type Subscription struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Validate mirrors the backend's EmailStr check so obviously bad input never
// leaves the client.
func (s Subscription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&s.Name, validation.Length(0, 200)),
	)
}

// Result is the backend's subscribe/unsubscribe response.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// Client issues newsletter requests. Newsletter endpoints are public, so no
// bearer token is attached.
type Client struct {
	api *api.Client
}

// New binds a newsletter client to an api client.
func New(c *api.Client) *Client {
	return &Client{api: c}
}

// Subscribe registers sub.Email. Invalid input fails locally without a
// network call.
func (c *Client) Subscribe(ctx context.Context, sub Subscription) api.Response[Result] {
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Name = strings.TrimSpace(sub.Name)
	if err := sub.Validate(); err != nil {
		return api.Response[Result]{Error: err.Error()}
	}
	return api.Post[Result](ctx, c.api, "/newsletter/subscribe", sub, nil)
}

// Unsubscribe removes email from the list.
func (c *Client) Unsubscribe(ctx context.Context, email string) api.Response[Result] {
	sub := Subscription{Email: strings.TrimSpace(email)}
	if err := sub.Validate(); err != nil {
		return api.Response[Result]{Error: err.Error()}
	}
	return api.Post[Result](ctx, c.api, "/newsletter/unsubscribe", map[string]string{"email": sub.Email}, nil)
}
