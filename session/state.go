package session

import "sync"

// State is the in-memory session store for one client.
//
// The zero value is ready to use and unauthenticated.
type State struct {
	mu    sync.RWMutex
	cur   Session
	epoch uint64
}

// NewState returns an empty, unauthenticated State.
func NewState() *State {
	return &State{}
}

// Snapshot returns a copy of the current session.
func (s *State) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Token returns the current bearer token or "".
func (s *State) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AuthToken
}

// SessionID returns the current session ID or "".
func (s *State) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.SessionID
}

// UserID returns the current user ID or "".
func (s *State) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.UserID
}

// IsAuthenticated reports whether a complete identity is held.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.IsAuthenticated
}

// Epoch returns the current commit counter.
func (s *State) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Set commits a complete identity unconditionally.
func (s *State) Set(next Session) error {
	if !next.Complete() {
		return ErrPartialSession
	}
	next.IsAuthenticated = true

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = next
	s.epoch++
	return nil
}

// SetIfEpoch commits next only if no other commit happened since epoch was
// observed. It reports whether the commit was applied.
func (s *State) SetIfEpoch(epoch uint64, next Session) (bool, error) {
	if !next.Complete() {
		return false, ErrPartialSession
	}
	next.IsAuthenticated = true

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false, nil
	}
	s.cur = next
	s.epoch++
	return true, nil
}

// Clear resets to the unauthenticated state. It always advances the epoch so
// in-flight operations started before the clear cannot resurrect a session.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Session{}
	s.epoch++
}
