package goChatAuth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goChatAuth/chat"
	"github.com/MrEthical07/goChatAuth/internal/fakebackend"
	"github.com/MrEthical07/goChatAuth/session"
)

// cutTransport fails requests whose path contains cut with a transport
// error while armed.
type cutTransport struct {
	cut   string
	armed atomic.Bool
	next  http.RoundTripper
}

func (t *cutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.armed.Load() && strings.Contains(req.URL.Path, t.cut) {
		return nil, errors.New("connection reset by peer")
	}
	return t.next.RoundTrip(req)
}

type testEnv struct {
	client  *Client
	backend *fakebackend.Backend
	storage *session.MemoryStorage
	sink    *ChannelSink
}

func newTestEnv(t *testing.T, mutate func(*Builder)) *testEnv {
	t.Helper()

	backend := fakebackend.New()
	srv := backend.Start()
	t.Cleanup(srv.Close)

	storage := session.NewMemoryStorage()
	sink := NewChannelSink(256)

	b := New().
		WithBaseURL(srv.URL).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithStorage(storage).
		WithAuditSink(sink)
	if mutate != nil {
		mutate(b)
	}

	client, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return &testEnv{client: client, backend: backend, storage: storage, sink: sink}
}

func mirrored(t *testing.T, s session.Storage) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, k := range session.Keys {
		v, ok, err := s.Get(context.Background(), k)
		if err != nil {
			t.Fatalf("storage get %s: %v", k, err)
		}
		if ok {
			out[k] = v
		}
	}
	return out
}

func TestSignInCommitsIdentity(t *testing.T) {
	env := newTestEnv(t, nil)
	env.backend.QueueIdentity(fakebackend.Identity{UserID: "u1", SessionID: "s1", Token: "t1"})

	resp, err := env.client.SignInAnonymously(context.Background())
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if !resp.Success || !resp.IsAnonymous || resp.UserID != "u1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	want := session.Session{UserID: "u1", SessionID: "s1", AuthToken: "t1", IsAuthenticated: true}
	if got := env.client.Snapshot(); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}

	m := mirrored(t, env.storage)
	if m[session.KeyUserID] != "u1" || m[session.KeySessionID] != "s1" || m[session.KeyAuthToken] != "t1" {
		t.Fatalf("storage not mirrored: %v", m)
	}
}

func TestSignInFailureLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t, nil)

	env.backend.FailNext(fakebackend.RouteAnonymous, 1)
	_, err := env.client.SignInAnonymously(context.Background())
	if !errors.Is(err, ErrAuthentication) || !errors.Is(err, ErrBackendRejected) {
		t.Fatalf("expected authentication+rejected error, got %v", err)
	}

	env.backend.RejectNext(fakebackend.RouteAnonymous, 1)
	_, err = env.client.SignInAnonymously(context.Background())
	if !errors.Is(err, ErrAuthentication) || !errors.Is(err, ErrBackendRejected) {
		t.Fatalf("expected rejection for success=false, got %v", err)
	}

	if !env.client.Snapshot().Empty() || env.storage.Len() != 0 {
		t.Fatalf("failed sign-in mutated state: %+v", env.client.Snapshot())
	}
	if got := env.client.MetricsSnapshot().Counters[MetricSignInFailure]; got != 2 {
		t.Fatalf("expected 2 sign-in failures, got %d", got)
	}
}

func TestSignInTransportFailure(t *testing.T) {
	tr := &cutTransport{cut: "/auth/anonymous", next: http.DefaultTransport}
	tr.armed.Store(true)
	env := newTestEnv(t, func(b *Builder) { b.WithHTTPClient(&http.Client{Transport: tr}) })

	_, err := env.client.SignInAnonymously(context.Background())
	if !errors.Is(err, ErrAuthentication) || !errors.Is(err, ErrTransport) {
		t.Fatalf("expected authentication+transport error, got %v", err)
	}
	if env.client.State().IsAuthenticated() {
		t.Fatal("state must stay unauthenticated")
	}
}

func TestSignInMirrorFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t, func(b *Builder) { b.WithStorage(brokenStorage{}) })

	if _, err := env.client.SignInAnonymously(context.Background()); err != nil {
		t.Fatalf("mirror failure must not fail sign-in: %v", err)
	}
	if !env.client.State().IsAuthenticated() {
		t.Fatal("expected committed session")
	}
	if got := env.client.MetricsSnapshot().Counters[MetricStorageFailure]; got != 1 {
		t.Fatalf("expected storage failure metric, got %d", got)
	}
}

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, session.ErrStorageUnavailable
}
func (brokenStorage) Set(context.Context, map[string]string) error { return session.ErrStorageUnavailable }
func (brokenStorage) Delete(context.Context, ...string) error      { return session.ErrStorageUnavailable }

func TestLogoutAlwaysClears(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// From the empty state.
	env.client.Logout(ctx)
	if !env.client.Snapshot().Empty() {
		t.Fatal("logout from empty state must stay empty")
	}
	if n := len(env.backend.RequestsFor(fakebackend.RouteLogout)); n != 0 {
		t.Fatalf("no session id means no backend call, got %d", n)
	}

	// From an authenticated state with a healthy backend.
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	sid := env.client.State().SessionID()
	env.client.Logout(ctx)
	if !env.client.Snapshot().Empty() || env.storage.Len() != 0 {
		t.Fatal("logout must clear state and storage")
	}
	if env.backend.HasSession(sid) {
		t.Fatal("backend session should be revoked")
	}

	// From an authenticated state with a failing backend.
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	env.backend.FailNext(fakebackend.RouteLogout, 1)
	env.client.Logout(ctx)
	if !env.client.Snapshot().Empty() || env.storage.Len() != 0 {
		t.Fatal("logout must clear even when the backend fails")
	}
	if got := env.client.MetricsSnapshot().Counters[MetricLogoutNotifyFailure]; got != 1 {
		t.Fatalf("expected 1 notify failure, got %d", got)
	}

	// From an authenticated state on a closed client.
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	sid = env.client.State().SessionID()
	if env.storage.Len() == 0 {
		t.Fatal("expected mirrored session before close")
	}
	notified := len(env.backend.RequestsFor(fakebackend.RouteLogout))
	if err := env.client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	env.client.Logout(ctx)
	if !env.client.Snapshot().Empty() || env.storage.Len() != 0 {
		t.Fatalf("logout after close must clear: snapshot=%+v storageKeys=%d", env.client.Snapshot(), env.storage.Len())
	}
	if n := len(env.backend.RequestsFor(fakebackend.RouteLogout)); n != notified {
		t.Fatalf("closed client must not notify the backend, got %d calls, want %d", n, notified)
	}
	if !env.backend.HasSession(sid) {
		t.Fatal("backend session should survive an unnotified logout")
	}
}

func TestRefreshExtendedDoesNotMutate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	before := env.client.Snapshot()
	epoch := env.client.State().Epoch()

	r := env.client.RefreshSessionWithResult(ctx, before.SessionID)
	if r.Outcome != RefreshExtended || r.FellBack || r.Err != nil {
		t.Fatalf("unexpected result %+v", r)
	}
	if env.client.Snapshot() != before || env.client.State().Epoch() != epoch {
		t.Fatal("extended refresh must not mutate state")
	}
	if !env.client.RefreshSession(ctx, before.SessionID) {
		t.Fatal("RefreshSession should report true for an extension")
	}
}

func TestRefreshNewSessionReplacesIdentity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	old := env.client.Snapshot()
	env.backend.Expire(old.SessionID)
	env.backend.QueueIdentity(fakebackend.Identity{UserID: "u2", SessionID: "s2", Token: "t2"})

	r := env.client.RefreshSessionWithResult(ctx, old.SessionID)
	if r.Outcome != RefreshReauthenticated || r.FellBack {
		t.Fatalf("unexpected result %+v", r)
	}
	if got := env.client.Snapshot(); got.SessionID != "s2" || got.AuthToken != "t2" {
		t.Fatalf("expected new identity, got %+v", got)
	}
	if m := mirrored(t, env.storage); m[session.KeySessionID] != "s2" {
		t.Fatalf("storage not updated: %v", m)
	}
}

func TestRefreshTransportFailureFallsBack(t *testing.T) {
	tr := &cutTransport{cut: "/auth/refresh/", next: http.DefaultTransport}
	env := newTestEnv(t, func(b *Builder) { b.WithHTTPClient(&http.Client{Transport: tr}) })
	ctx := context.Background()

	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	old := env.client.State().SessionID()
	env.backend.QueueIdentity(fakebackend.Identity{UserID: "u9", SessionID: "s9", Token: "t9"})
	tr.armed.Store(true)

	if !env.client.RefreshSession(ctx, old) {
		t.Fatal("fallback sign-in should make refresh succeed")
	}
	want := session.Session{UserID: "u9", SessionID: "s9", AuthToken: "t9", IsAuthenticated: true}
	if got := env.client.Snapshot(); got != want {
		t.Fatalf("state = %+v, want fallback identity %+v", got, want)
	}
	if got := env.client.MetricsSnapshot().Counters[MetricRefreshFallback]; got != 1 {
		t.Fatalf("expected fallback metric, got %d", got)
	}
}

func TestRefreshFailureWithFailedFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	before := env.client.Snapshot()

	env.backend.RejectNext(fakebackend.RouteRefresh, 1)
	env.backend.FailNext(fakebackend.RouteAnonymous, 1)

	r := env.client.RefreshSessionWithResult(ctx, before.SessionID)
	if r.Outcome != RefreshFailed || !r.FellBack {
		t.Fatalf("unexpected result %+v", r)
	}
	if !errors.Is(r.Err, ErrBackendRejected) || !strings.Contains(r.Err.Error(), "rejected by backend") {
		t.Fatalf("expected joined refresh and fallback errors, got %v", r.Err)
	}
	if env.client.Snapshot() != before {
		t.Fatal("failed refresh must keep the previous identity")
	}
}

func TestRefreshWithoutSessionID(t *testing.T) {
	env := newTestEnv(t, nil)
	r := env.client.RefreshSessionWithResult(context.Background(), "")
	if r.Outcome != RefreshFailed || !errors.Is(r.Err, ErrNoSession) {
		t.Fatalf("unexpected result %+v", r)
	}
	if n := len(env.backend.RequestsFor(fakebackend.RouteRefresh)); n != 0 {
		t.Fatalf("expected no refresh call, got %d", n)
	}
}

func TestStaleRefreshAfterLogoutIsDiscarded(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	sid := env.client.State().SessionID()

	gate := env.backend.Hold(fakebackend.RouteRefresh)
	done := make(chan RefreshResult, 1)
	go func() {
		done <- env.client.RefreshSessionWithResult(ctx, sid)
	}()

	select {
	case <-gate.Arrived():
	case <-time.After(5 * time.Second):
		t.Fatal("refresh never reached the backend")
	}

	env.client.Logout(ctx)
	gate.Release()

	var r RefreshResult
	select {
	case r = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not complete")
	}

	if !errors.Is(r.Err, ErrSessionSuperseded) {
		t.Fatalf("expected superseded refresh, got %+v", r)
	}
	if !env.client.Snapshot().Empty() || env.storage.Len() != 0 {
		t.Fatalf("stale refresh resurrected a session: %+v", env.client.Snapshot())
	}
	if n := len(env.backend.RequestsFor(fakebackend.RouteAnonymous)); n != 1 {
		t.Fatalf("superseded refresh must not fall back, anonymous calls = %d", n)
	}
}

func TestValidateSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	snap := env.client.Snapshot()

	v := env.client.ValidateSessionWithResult(ctx, snap.SessionID)
	if !v.Valid || v.UserID != snap.UserID || v.Err != nil {
		t.Fatalf("unexpected validation %+v", v)
	}
	if env.client.ValidateSession(ctx, "unknown") {
		t.Fatal("unknown session must be invalid")
	}

	env.backend.FailNext(fakebackend.RouteValidate, 1)
	v = env.client.ValidateSessionWithResult(ctx, snap.SessionID)
	if v.Valid || !errors.Is(v.Err, ErrBackendRejected) || errors.Is(v.Err, ErrTransport) {
		t.Fatalf("error status must read as invalid and rejected, got %+v", v)
	}
	if env.client.Snapshot() != snap {
		t.Fatal("validate must never mutate state")
	}
}

func TestValidateSessionTransportFailure(t *testing.T) {
	tr := &cutTransport{cut: "/auth/validate/", next: http.DefaultTransport}
	env := newTestEnv(t, func(b *Builder) { b.WithHTTPClient(&http.Client{Transport: tr}) })
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}

	tr.armed.Store(true)
	v := env.client.ValidateSessionWithResult(ctx, env.client.State().SessionID())
	if v.Valid || !errors.Is(v.Err, ErrTransport) || errors.Is(v.Err, ErrBackendRejected) {
		t.Fatalf("unreachable backend must read as a transport error, got %+v", v)
	}
	if got := env.client.MetricsSnapshot().Counters[MetricValidateError]; got != 1 {
		t.Fatalf("validate errors = %d, want 1", got)
	}
}

func TestRestoreSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_ = env.storage.Set(ctx, map[string]string{session.KeyUserID: "u1", session.KeySessionID: "s1"})
	if env.client.RestoreSession(ctx) {
		t.Fatal("restore with two keys must fail")
	}
	if env.client.State().IsAuthenticated() {
		t.Fatal("partial restore must leave state unauthenticated")
	}

	_ = env.storage.Set(ctx, map[string]string{session.KeyAuthToken: "t1"})
	if !env.client.RestoreSession(ctx) {
		t.Fatal("restore with all keys should succeed")
	}
	want := session.Session{UserID: "u1", SessionID: "s1", AuthToken: "t1", IsAuthenticated: true}
	if got := env.client.Snapshot(); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if n := len(env.backend.Requests()); n != 0 {
		t.Fatalf("restore must not call the backend, got %d calls", n)
	}
}

func TestRestoreWithoutStorage(t *testing.T) {
	env := newTestEnv(t, func(b *Builder) { b.WithStorage(nil) })
	if env.client.RestoreSession(context.Background()) {
		t.Fatal("restore without storage must report false")
	}
	if env.client.Storage() != nil {
		t.Fatal("expected no storage")
	}
}

func TestRestoreOnBuild(t *testing.T) {
	storage := session.NewMemoryStorage()
	sess, _ := session.New("u1", "s1", "t1")
	_ = session.Mirror(context.Background(), storage, sess)

	env := newTestEnv(t, func(b *Builder) {
		b.WithStorage(storage)
		b.config.Restore.OnBuild = true
	})
	if env.client.Snapshot() != sess {
		t.Fatalf("expected session restored during Build, got %+v", env.client.Snapshot())
	}
}

func TestReconnect(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.client.SignInAnonymously(ctx)
	if err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	env.client.Logout(ctx)

	resp, err := env.client.Reconnect(ctx, first.UserID)
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if resp.UserID != first.UserID || resp.SessionID == first.SessionID {
		t.Fatalf("expected same user with a new session, got %+v", resp)
	}
	if env.client.State().UserID() != first.UserID {
		t.Fatal("reconnect should commit the identity")
	}

	env.client.Logout(ctx)
	if _, err := env.client.Reconnect(ctx, "never-issued"); !errors.Is(err, ErrAuthentication) || !errors.Is(err, ErrBackendRejected) {
		t.Fatalf("unknown user should be rejected, got %v", err)
	}
	if _, err := env.client.Reconnect(ctx, " "); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("empty uuid should fail, got %v", err)
	}
}

func TestSessionInfo(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	snap := env.client.Snapshot()

	info, err := env.client.SessionInfo(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("session info: %v", err)
	}
	if !info.Valid || info.UserID != snap.UserID || !info.IsAnonymous {
		t.Fatalf("unexpected summary %+v", info)
	}
	if exp, ok := info.Expiry(); !ok || !exp.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v ok=%v", exp, ok)
	}

	if _, err := env.client.SessionInfo(ctx, "unknown"); !errors.Is(err, ErrBackendRejected) {
		t.Fatalf("expected rejection for unknown session, got %v", err)
	}
	if _, err := env.client.SessionInfo(ctx, ""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestEnsureSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.client.EnsureSession(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	first := env.client.Snapshot()
	if !first.IsAuthenticated {
		t.Fatal("ensure should sign in")
	}

	if err := env.client.EnsureSession(ctx); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if env.client.Snapshot() != first {
		t.Fatal("ensure must not replace an existing session")
	}
	if n := len(env.backend.RequestsFor(fakebackend.RouteAnonymous)); n != 1 {
		t.Fatalf("expected a single sign-in, got %d", n)
	}
}

func TestChatUsesSessionToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res := env.client.Chat().Send(ctx, chat.Message{Message: "hi", UserID: "anon", SessionID: "none"})
	if !res.Success {
		t.Fatalf("chat send: %s", res.Error)
	}
	reqs := env.backend.RequestsFor(fakebackend.RouteChat)
	if len(reqs) != 1 || reqs[0].HasAuthHeader {
		t.Fatalf("expected no Authorization header without a session, got %+v", reqs)
	}

	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	snap := env.client.Snapshot()
	_ = env.client.Chat().Send(ctx, chat.Message{Message: "hi", UserID: snap.UserID, SessionID: snap.SessionID})

	reqs = env.backend.RequestsFor(fakebackend.RouteChat)
	if len(reqs) != 2 || reqs[1].Authorization != "Bearer "+snap.AuthToken {
		t.Fatalf("expected bearer token after sign-in, got %+v", reqs)
	}
}

func TestClosedClientRejectsCalls(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := env.client.SignInAnonymously(context.Background()); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
	if env.client.RefreshSession(context.Background(), "s1") {
		t.Fatal("closed client cannot refresh")
	}

	var nilClient *Client
	if _, err := nilClient.SignInAnonymously(context.Background()); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("nil client: %v", err)
	}
	nilClient.Logout(context.Background())
	if nilClient.AuditDropped() != 0 || len(nilClient.MetricsSnapshot().Counters) != 0 {
		t.Fatal("nil client accessors should be zero")
	}
}

func TestConcurrentLifecycleKeepsInvariant(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.client.SignInAnonymously(ctx); err != nil {
		t.Fatalf("sign-in: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				env.client.Logout(ctx)
			case 1:
				_, _ = env.client.SignInAnonymously(ctx)
			default:
				env.client.RefreshSession(ctx, env.client.State().SessionID())
			}
			snap := env.client.Snapshot()
			if !snap.Empty() && !snap.Complete() {
				t.Errorf("observed partial session %+v", snap)
			}
		}(i)
	}
	wg.Wait()

	snap := env.client.Snapshot()
	if !snap.Empty() && !snap.Complete() {
		t.Fatalf("final session is partial: %+v", snap)
	}
}
