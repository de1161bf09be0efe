// Package fakebackend is an in-process stand-in for the chat backend's HTTP
// surface, used by tests and the CLI's demo mode.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Route names accepted by FailNext, RejectNext and Hold.
const (
	RouteAnonymous   = "anonymous"
	RouteValidate    = "validate"
	RouteRefresh     = "refresh"
	RouteLogout      = "logout"
	RouteSession     = "session"
	RouteReconnect   = "reconnect"
	RouteHistory     = "history"
	RouteChat        = "chat"
	RouteSubscribe   = "subscribe"
	RouteUnsubscribe = "unsubscribe"
)

// Identity is one issued user/session/token triple.
type Identity struct {
	UserID    string
	SessionID string
	Token     string
}

// Request is a recorded inbound call.
type Request struct {
	Route         string
	Method        string
	Path          string
	Authorization string
	HasAuthHeader bool
}

type sessionRecord struct {
	Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}

type historyRecord struct {
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	Message     string    `json:"message"`
	Response    string    `json:"response"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Backend is a thread-safe fake of the chat backend.
type Backend struct {
	mu          sync.Mutex
	router      *mux.Router
	sessions    map[string]*sessionRecord
	users       map[string]bool
	history     map[string][]historyRecord
	subscribers map[string]string
	next        []Identity
	fail        map[string]int
	reject      map[string]int
	gates       map[string]*Gate
	requests    []Request
	requireAuth bool
	sessionTTL  time.Duration
	now         func() time.Time
}

// New returns a Backend with its routes registered.
func New() *Backend {
	b := &Backend{
		sessions:    make(map[string]*sessionRecord),
		users:       make(map[string]bool),
		history:     make(map[string][]historyRecord),
		subscribers: make(map[string]string),
		fail:        make(map[string]int),
		reject:      make(map[string]int),
		gates:       make(map[string]*Gate),
		sessionTTL:  24 * time.Hour,
		now:         time.Now,
	}
	b.router = b.routes()
	return b
}

// Start serves the backend on a local httptest server. The caller closes it.
func (b *Backend) Start() *httptest.Server {
	return httptest.NewServer(b.router)
}

// Handler exposes the router for embedding.
func (b *Backend) Handler() http.Handler {
	return b.router
}

// RequireAuth makes /chat/ and history reject calls without a live bearer token.
func (b *Backend) RequireAuth(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requireAuth = on
}

// QueueIdentity pins the identifiers handed out by the next sign-in style call.
func (b *Backend) QueueIdentity(id Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = append(b.next, id)
}

// FailNext makes the next n calls to route answer 500.
func (b *Backend) FailNext(route string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[route] += n
}

// RejectNext makes the next n calls to route answer 200 with success=false.
func (b *Backend) RejectNext(route string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject[route] += n
}

// Expire drops a session so validate reports it invalid and refresh issues a
// new one.
func (b *Backend) Expire(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
}

// HasSession reports whether sessionID is live.
func (b *Backend) HasSession(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[sessionID]
	return ok
}

// SessionCount returns the number of live sessions.
func (b *Backend) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Subscribed reports whether email is on the newsletter list.
func (b *Backend) Subscribed(email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subscribers[strings.ToLower(email)]
	return ok
}

// Requests returns a copy of every recorded call.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestsFor returns recorded calls to one route.
func (b *Backend) RequestsFor(route string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Route == route {
			out = append(out, r)
		}
	}
	return out
}

// Gate holds one call to a route until released.
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed when the held request reaches the handler.
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// Release lets the held request proceed.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// Hold parks the next call to route until the returned gate is released.
func (b *Backend) Hold(route string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	b.mu.Lock()
	b.gates[route] = g
	b.mu.Unlock()
	return g
}

func (b *Backend) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/auth/anonymous", b.wrap(RouteAnonymous, b.handleAnonymous)).Methods(http.MethodPost)
	r.HandleFunc("/auth/validate/{session_id}", b.wrap(RouteValidate, b.handleValidate)).Methods(http.MethodGet)
	r.HandleFunc("/auth/refresh/{session_id}", b.wrap(RouteRefresh, b.handleRefresh)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout/{session_id}", b.wrap(RouteLogout, b.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/auth/session/{session_id}", b.wrap(RouteSession, b.handleSession)).Methods(http.MethodGet)
	r.HandleFunc("/auth/reconnect/{client_uuid}", b.wrap(RouteReconnect, b.handleReconnect)).Methods(http.MethodPost)
	r.HandleFunc("/auth/history/{client_uuid}", b.wrap(RouteHistory, b.guarded(b.handleHistory))).Methods(http.MethodGet)
	r.HandleFunc("/chat/", b.wrap(RouteChat, b.guarded(b.handleChat))).Methods(http.MethodPost)
	r.HandleFunc("/newsletter/subscribe", b.wrap(RouteSubscribe, b.handleSubscribe)).Methods(http.MethodPost)
	r.HandleFunc("/newsletter/unsubscribe", b.wrap(RouteUnsubscribe, b.handleUnsubscribe)).Methods(http.MethodPost)
	return r
}

func (b *Backend) guarded(h http.HandlerFunc) http.HandlerFunc {
	return b.guard(h).ServeHTTP
}

func (b *Backend) wrap(route string, h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, hasAuth := r.Header["Authorization"]
		rec := Request{Route: route, Method: r.Method, Path: r.URL.Path, HasAuthHeader: hasAuth}
		if hasAuth && len(auth) > 0 {
			rec.Authorization = auth[0]
		}

		b.mu.Lock()
		b.requests = append(b.requests, rec)
		gate := b.gates[route]
		delete(b.gates, route)
		failing := b.fail[route] > 0
		if failing {
			b.fail[route]--
		}
		rejecting := !failing && b.reject[route] > 0
		if rejecting {
			b.reject[route]--
		}
		b.mu.Unlock()

		if gate != nil {
			close(gate.arrived)
			select {
			case <-gate.release:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "forced failure on " + route})
			return
		}
		if rejecting {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "rejected by backend"})
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// issueLocked creates a session, honoring queued identities. userID overrides
// the user half when non-empty.
func (b *Backend) issueLocked(userID string) Identity {
	var id Identity
	if len(b.next) > 0 {
		id = b.next[0]
		b.next = b.next[1:]
	}
	if userID != "" {
		id.UserID = userID
	}
	if id.UserID == "" {
		id.UserID = uuid.NewString()
	}
	if id.SessionID == "" {
		id.SessionID = uuid.NewString()
	}
	if id.Token == "" {
		id.Token = uuid.NewString()
	}
	now := b.now()
	b.sessions[id.SessionID] = &sessionRecord{
		Identity:  id,
		CreatedAt: now,
		ExpiresAt: now.Add(b.sessionTTL),
	}
	b.users[id.UserID] = true
	return id
}

func (b *Backend) handleAnonymous(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	id := b.issueLocked("")
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"user_id":      id.UserID,
		"session_id":   id.SessionID,
		"token":        id.Token,
		"is_anonymous": true,
	})
}

func (b *Backend) handleValidate(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["session_id"]
	b.mu.Lock()
	rec, ok := b.sessions[sid]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "message": "Session expired or not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user_id": rec.UserID, "message": "Session is valid"})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["session_id"]
	b.mu.Lock()
	rec, ok := b.sessions[sid]
	if ok {
		rec.ExpiresAt = b.now().Add(b.sessionTTL)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session refreshed"})
		return
	}
	id := b.issueLocked("")
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Session not found, created new anonymous session",
		"new_session": true,
		"user_id":     id.UserID,
		"session_id":  id.SessionID,
		"token":       id.Token,
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["session_id"]
	b.mu.Lock()
	delete(b.sessions, sid)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session revoked"})
}

func (b *Backend) handleSession(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["session_id"]
	b.mu.Lock()
	rec, ok := b.sessions[sid]
	var snapshot sessionRecord
	if ok {
		snapshot = *rec
	}
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Session not found or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":        true,
		"user_id":      snapshot.UserID,
		"is_anonymous": true,
		"created_at":   snapshot.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at":   snapshot.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (b *Backend) handleReconnect(w http.ResponseWriter, r *http.Request) {
	clientUUID := mux.Vars(r)["client_uuid"]
	b.mu.Lock()
	if !b.users[clientUUID] {
		b.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "User not found. Please sign in again."})
		return
	}
	id := b.issueLocked(clientUUID)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"user_id":      id.UserID,
		"session_id":   id.SessionID,
		"token":        id.Token,
		"is_anonymous": true,
	})
}

func (b *Backend) handleHistory(w http.ResponseWriter, r *http.Request) {
	clientUUID := mux.Vars(r)["client_uuid"]
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	b.mu.Lock()
	entries := append([]historyRecord(nil), b.history[clientUUID]...)
	b.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "history": entries, "count": len(entries)})
}

func (b *Backend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		UserID    string `json:"user_id"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "Validation error: message required"})
		return
	}
	if id, ok := IdentityFromContext(r.Context()); ok {
		if req.UserID == "" {
			req.UserID = id.UserID
		}
		if req.SessionID == "" {
			req.SessionID = id.SessionID
		}
	}

	reply := "echo: " + req.Message
	b.mu.Lock()
	b.history[req.UserID] = append(b.history[req.UserID], historyRecord{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Message:     req.Message,
		Response:    reply,
		MessageType: "text",
		CreatedAt:   b.now().Add(time.Duration(len(b.history[req.UserID])) * time.Millisecond),
	})
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"type": "text", "data": reply, "session_id": req.SessionID})
}

func (b *Backend) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "value is not a valid email address"})
		return
	}
	key := strings.ToLower(req.Email)

	b.mu.Lock()
	_, exists := b.subscribers[key]
	if !exists {
		b.subscribers[key] = req.Name
	}
	b.mu.Unlock()

	if exists {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "You are already subscribed.", "email": req.Email})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Successfully subscribed to newsletter!", "email": req.Email})
}

func (b *Backend) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "email required"})
		return
	}
	key := strings.ToLower(req.Email)

	b.mu.Lock()
	_, exists := b.subscribers[key]
	delete(b.subscribers, key)
	b.mu.Unlock()

	if !exists {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Email not found in subscriber list."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Successfully unsubscribed."})
}
