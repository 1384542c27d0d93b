package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/storefront/internal/session"
)

// authUser is the user object returned by the auth endpoints.
type authUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

func (u authUser) toUser() session.User {
	return session.User{ID: u.ID, Email: u.Email, FullName: u.UserMetadata.FullName}
}

// authSession is the session object returned by the token endpoint and,
// when no confirmation is required, by sign-up.
type authSession struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *authUser `json:"user"`
}

// signUpResponse covers both shapes of the sign-up reply: a session
// (fields of authSession) or a bare user (fields of authUser).
type signUpResponse struct {
	authSession
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// authErrorBody covers the error shapes of the auth service.
type authErrorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SignUp registers an account carrying name as the user's full name.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (SessionOutcome, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return SessionOutcome{}, &AuthError{Code: AuthInvalidInput, Message: "email and password are required"}
	}

	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": name},
	}
	resp, err := c.send(ctx, request{method: http.MethodPost, path: "/auth/v1/signup", body: body, bearer: c.anonKey})
	if err != nil {
		return SessionOutcome{}, authTransportError(err)
	}
	if !resp.ok() {
		return SessionOutcome{}, decodeAuthError(resp)
	}

	var out signUpResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return SessionOutcome{}, &AuthError{Code: AuthServer, Message: "unreadable sign-up response", Status: resp.status, Err: err}
	}

	if out.AccessToken != "" {
		s, err := c.toSession(out.authSession)
		if err != nil {
			return SessionOutcome{}, err
		}
		return SessionEstablished(s), nil
	}

	u := session.User{ID: out.ID, Email: out.Email, FullName: out.UserMetadata.FullName}
	if out.User != nil {
		u = out.User.toUser()
	}
	return ConfirmationPending(u), nil
}

// SignIn exchanges an email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return session.Session{}, &AuthError{Code: AuthInvalidInput, Message: "email and password are required"}
	}
	return c.token(ctx, "password", map[string]string{"email": email, "password": password})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (session.Session, error) {
	if refreshToken == "" {
		return session.Session{}, &AuthError{Code: AuthInvalidCredentials, Message: "no refresh token"}
	}
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// SignOut revokes the current session. Without a session it does nothing.
func (c *Client) SignOut(ctx context.Context) error {
	if c.sessions == nil {
		return nil
	}
	s, ok := c.sessions.CurrentSession()
	if !ok || !s.Valid() {
		return nil
	}

	resp, err := c.send(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", bearer: s.AccessToken})
	if err != nil {
		return authTransportError(err)
	}
	if !resp.ok() {
		return decodeAuthError(resp)
	}
	return nil
}

func (c *Client) token(ctx context.Context, grant string, body map[string]string) (session.Session, error) {
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
		bearer: c.anonKey,
	})
	if err != nil {
		return session.Session{}, authTransportError(err)
	}
	if !resp.ok() {
		return session.Session{}, decodeAuthError(resp)
	}

	var out authSession
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return session.Session{}, &AuthError{Code: AuthServer, Message: "unreadable token response", Status: resp.status, Err: err}
	}
	return c.toSession(out)
}

func (c *Client) toSession(a authSession) (session.Session, error) {
	if a.AccessToken == "" {
		return session.Session{}, &AuthError{Code: AuthServer, Message: "token response has no access token"}
	}
	s := session.Session{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    a.TokenType,
	}
	switch {
	case a.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(a.ExpiresAt, 0).UTC()
	case a.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(a.ExpiresIn) * time.Second).UTC()
	}
	if a.User != nil {
		s.User = a.User.toUser()
	}
	return s, nil
}

func authTransportError(err error) *AuthError {
	return &AuthError{Code: AuthTransport, Message: transportMessage(err), Err: err}
}

// decodeAuthError maps an auth service error reply to an AuthError.
func decodeAuthError(resp response) *AuthError {
	var body authErrorBody
	_ = json.Unmarshal(resp.body, &body)

	msg := firstNonEmpty(body.Msg, body.ErrorDescription, body.Message, body.Error)
	if msg == "" {
		msg = http.StatusText(resp.status)
	}

	return &AuthError{
		Code:    classifyAuthError(resp.status, body),
		Message: msg,
		Status:  resp.status,
	}
}

func classifyAuthError(status int, body authErrorBody) AuthErrorCode {
	switch body.ErrorCode {
	case "invalid_credentials", "bad_jwt", "refresh_token_not_found", "refresh_token_already_used", "session_not_found":
		return AuthInvalidCredentials
	case "user_already_exists", "email_exists":
		return AuthDuplicateAccount
	case "validation_failed", "weak_password", "email_address_invalid", "email_address_not_authorized":
		return AuthInvalidInput
	}
	if body.Error == "invalid_grant" {
		return AuthInvalidCredentials
	}
	if strings.Contains(strings.ToLower(firstNonEmpty(body.Msg, body.Message)), "already registered") {
		return AuthDuplicateAccount
	}

	switch {
	case status >= 500:
		return AuthServer
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return AuthInvalidCredentials
	default:
		return AuthInvalidInput
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
