package newsletter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goChatAuth/api"
	"github.com/MrEthical07/goChatAuth/internal/fakebackend"
	"github.com/MrEthical07/goChatAuth/newsletter"
)

func newNewsletter(t *testing.T) (*newsletter.Client, *fakebackend.Backend) {
	t.Helper()
	backend := fakebackend.New()
	srv := backend.Start()
	t.Cleanup(srv.Close)

	c, err := api.NewClient(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return newsletter.New(c), backend
}

func TestSubscribeAndDuplicate(t *testing.T) {
	c, backend := newNewsletter(t)
	ctx := context.Background()

	res := c.Subscribe(ctx, newsletter.Subscription{Email: " reader@example.com ", Name: "Reader"})
	require.True(t, res.Success, res.Error)
	require.True(t, res.Data.Success)
	require.Equal(t, "reader@example.com", res.Data.Email)
	require.True(t, backend.Subscribed("reader@example.com"))

	dup := c.Subscribe(ctx, newsletter.Subscription{Email: "reader@example.com"})
	require.True(t, dup.Success, "transport should succeed")
	require.False(t, dup.Data.Success)
	require.Equal(t, "You are already subscribed.", dup.Data.Message)
}

func TestSubscribeInvalidEmailNeverHitsNetwork(t *testing.T) {
	c, backend := newNewsletter(t)

	for _, email := range []string{"", "user@", "not-an-email"} {
		res := c.Subscribe(context.Background(), newsletter.Subscription{Email: email})
		require.False(t, res.Success, "email %q", email)
		require.NotEmpty(t, res.Error)
	}
	require.Empty(t, backend.RequestsFor(fakebackend.RouteSubscribe))
}

func TestUnsubscribe(t *testing.T) {
	c, backend := newNewsletter(t)
	ctx := context.Background()

	require.True(t, c.Subscribe(ctx, newsletter.Subscription{Email: "reader@example.com"}).Success)

	res := c.Unsubscribe(ctx, "reader@example.com")
	require.True(t, res.Success, res.Error)
	require.True(t, res.Data.Success)
	require.False(t, backend.Subscribed("reader@example.com"))

	again := c.Unsubscribe(ctx, "reader@example.com")
	require.True(t, again.Success)
	require.False(t, again.Data.Success)
}

func TestSubscribeBackendFailure(t *testing.T) {
	c, backend := newNewsletter(t)
	backend.FailNext(fakebackend.RouteSubscribe, 1)

	res := c.Subscribe(context.Background(), newsletter.Subscription{Email: "reader@example.com"})
	require.False(t, res.Success)
	require.Contains(t, res.Error, "forced failure")
}
