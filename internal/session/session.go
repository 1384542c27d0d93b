package session

import "time"

// User identifies the account a session belongs to.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// Session is the credential material returned by authentication.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	User         User      `json:"user"`
}

// Valid reports whether the session carries an access token.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

// Expired reports whether the access token is past its expiry at now.
// A session without an expiry never expires client-side.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Provider exposes the current session to readers.
type Provider interface {
	CurrentSession() (Session, bool)
}
