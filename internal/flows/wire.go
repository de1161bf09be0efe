package flows

// AuthPayload is returned by /auth/anonymous and /auth/reconnect/{client_uuid}.
type AuthPayload struct {
	Success     bool   `json:"success"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	Token       string `json:"token"`
	IsAnonymous bool   `json:"is_anonymous"`
	Message     string `json:"message,omitempty"`
}

// ValidationPayload is returned by /auth/validate/{session_id}.
type ValidationPayload struct {
	Valid   bool   `json:"valid"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// RefreshPayload is returned by /auth/refresh/{session_id}.
type RefreshPayload struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	NewSession bool   `json:"new_session,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Token      string `json:"token,omitempty"`
}

// AckPayload is the generic {success, message} acknowledgement.
type AckPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
