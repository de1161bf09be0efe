package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	goChatAuth "github.com/MrEthical07/goChatAuth"
	"github.com/MrEthical07/goChatAuth/chat"
	"github.com/MrEthical07/goChatAuth/newsletter"
)

var errUsage = errors.New("invalid arguments")

type commands struct {
	client *goChatAuth.Client
	out    io.Writer
}

func (c *commands) run(ctx context.Context, name string, args []string) error {
	switch name {
	case "signin":
		return c.signIn(ctx)
	case "reconnect":
		if len(args) != 1 {
			return fmt.Errorf("%w: reconnect <user-id>", errUsage)
		}
		return c.reconnect(ctx, args[0])
	case "validate":
		return c.validate(ctx, c.sessionArg(args))
	case "refresh":
		return c.refresh(ctx, c.sessionArg(args))
	case "session":
		return c.sessionInfo(ctx, c.sessionArg(args))
	case "restore":
		return c.restore(ctx)
	case "logout":
		c.client.Logout(ctx)
		fmt.Fprintln(c.out, "logged out")
		return nil
	case "chat":
		if len(args) == 0 {
			return fmt.Errorf("%w: chat <message>", errUsage)
		}
		return c.chat(ctx, strings.Join(args, " "))
	case "history":
		return c.history(ctx, args)
	case "subscribe":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: subscribe <email> [name]", errUsage)
		}
		sub := newsletter.Subscription{Email: args[0]}
		if len(args) == 2 {
			sub.Name = args[1]
		}
		res := c.client.Newsletter().Subscribe(ctx, sub)
		return c.printResult(res.Success, res.Error, res.Data.Message)
	case "unsubscribe":
		if len(args) != 1 {
			return fmt.Errorf("%w: unsubscribe <email>", errUsage)
		}
		res := c.client.Newsletter().Unsubscribe(ctx, args[0])
		return c.printResult(res.Success, res.Error, res.Data.Message)
	case "demo":
		return c.demo(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

// sessionArg defaults to the client's own session id.
func (c *commands) sessionArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return c.client.State().SessionID()
}

func (c *commands) signIn(ctx context.Context) error {
	resp, err := c.client.SignInAnonymously(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "user_id=%s session_id=%s\n", resp.UserID, resp.SessionID)
	return nil
}

func (c *commands) reconnect(ctx context.Context, userID string) error {
	resp, err := c.client.Reconnect(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "user_id=%s session_id=%s\n", resp.UserID, resp.SessionID)
	return nil
}

func (c *commands) validate(ctx context.Context, sessionID string) error {
	v := c.client.ValidateSessionWithResult(ctx, sessionID)
	if v.Err != nil {
		return v.Err
	}
	fmt.Fprintf(c.out, "valid=%t user_id=%s message=%q\n", v.Valid, v.UserID, v.Message)
	return nil
}

func (c *commands) refresh(ctx context.Context, sessionID string) error {
	r := c.client.RefreshSessionWithResult(ctx, sessionID)
	if r.Err != nil {
		return r.Err
	}
	fmt.Fprintf(c.out, "outcome=%s fell_back=%t session_id=%s\n", r.Outcome, r.FellBack, c.client.State().SessionID())
	return nil
}

func (c *commands) sessionInfo(ctx context.Context, sessionID string) error {
	info, err := c.client.SessionInfo(ctx, sessionID)
	if err != nil {
		return err
	}
	return c.printJSON(info)
}

func (c *commands) restore(ctx context.Context) error {
	if !c.client.RestoreSession(ctx) {
		return errors.New("no complete session in storage")
	}
	snap := c.client.Snapshot()
	fmt.Fprintf(c.out, "user_id=%s session_id=%s\n", snap.UserID, snap.SessionID)
	return nil
}

func (c *commands) chat(ctx context.Context, text string) error {
	if err := c.client.EnsureSession(ctx); err != nil {
		return err
	}
	snap := c.client.Snapshot()
	res := c.client.Chat().Send(ctx, chat.Message{Message: text, UserID: snap.UserID, SessionID: snap.SessionID})
	if !res.Success {
		return errors.New(res.Error)
	}
	if s, ok := res.Data.Text(); ok {
		fmt.Fprintf(c.out, "[%s] %s\n", res.Data.Type, s)
		return nil
	}
	return c.printJSON(res.Data)
}

func (c *commands) history(ctx context.Context, args []string) error {
	userID := c.client.State().UserID()
	if len(args) > 0 {
		userID = args[0]
	}
	if userID == "" {
		return fmt.Errorf("%w: history <user-id> (no session held)", errUsage)
	}
	res := c.client.Chat().History(ctx, userID, 0)
	if !res.Success {
		return errors.New(res.Error)
	}
	for _, e := range res.Data.History {
		fmt.Fprintf(c.out, "%s  > %s\n%s  < %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Message,
			strings.Repeat(" ", 16), e.Response)
	}
	fmt.Fprintf(c.out, "%d entries\n", res.Data.Count)
	return nil
}

// demo walks sign-in through logout, printing each step.
func (c *commands) demo(ctx context.Context) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"signin", func() error { return c.signIn(ctx) }},
		{"validate", func() error { return c.validate(ctx, c.client.State().SessionID()) }},
		{"session", func() error { return c.sessionInfo(ctx, c.client.State().SessionID()) }},
		{"chat", func() error { return c.chat(ctx, "hello from the demo") }},
		{"history", func() error { return c.history(ctx, nil) }},
		{"refresh", func() error { return c.refresh(ctx, c.client.State().SessionID()) }},
		{"logout", func() error { return c.run(ctx, "logout", nil) }},
		{"restore", func() error {
			if c.client.RestoreSession(ctx) {
				return errors.New("session still mirrored after logout")
			}
			fmt.Fprintln(c.out, "storage empty")
			return nil
		}},
	}
	for _, s := range steps {
		fmt.Fprintf(c.out, "== %s\n", s.name)
		if err := s.run(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	snap := c.client.MetricsSnapshot()
	fmt.Fprintf(c.out, "== metrics\nsignin_success=%d refresh_extended=%d logout=%d\n",
		snap.Counters[goChatAuth.MetricSignInSuccess],
		snap.Counters[goChatAuth.MetricRefreshExtended],
		snap.Counters[goChatAuth.MetricLogout],
	)
	return nil
}

func (c *commands) printResult(ok bool, errMsg, message string) error {
	if !ok {
		return errors.New(errMsg)
	}
	fmt.Fprintln(c.out, message)
	return nil
}

func (c *commands) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
