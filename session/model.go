package session

import "errors"

// Durable storage keys mirrored on sign-in and cleared on logout.
const (
	KeyUserID    = "user_id"
	KeySessionID = "session_id"
	KeyAuthToken = "auth_token"
)

// Keys lists the mirrored keys in write order.
var Keys = []string{KeyUserID, KeySessionID, KeyAuthToken}

// ErrPartialSession is returned when a commit would leave some identifiers empty.
var ErrPartialSession = errors.New("partial session")

// Session is one client identity as issued by the backend.
type Session struct {
	UserID          string
	SessionID       string
	AuthToken       string
	IsAuthenticated bool
}

// Empty reports whether s carries no identity at all.
func (s Session) Empty() bool {
	return s.UserID == "" && s.SessionID == "" && s.AuthToken == "" && !s.IsAuthenticated
}

// Complete reports whether all three identifiers are present.
func (s Session) Complete() bool {
	return s.UserID != "" && s.SessionID != "" && s.AuthToken != ""
}

// New builds an authenticated Session, rejecting partial identities.
func New(userID, sessionID, authToken string) (Session, error) {
	s := Session{
		UserID:    userID,
		SessionID: sessionID,
		AuthToken: authToken,
	}
	if !s.Complete() {
		return Session{}, ErrPartialSession
	}
	s.IsAuthenticated = true
	return s, nil
}

func (s Session) values() map[string]string {
	return map[string]string{
		KeyUserID:    s.UserID,
		KeySessionID: s.SessionID,
		KeyAuthToken: s.AuthToken,
	}
}
