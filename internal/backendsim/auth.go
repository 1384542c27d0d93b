package backendsim

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

func newOpaqueToken() string {
	return uuid.NewString()
}

type userJSON struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
}

type sessionJSON struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         userJSON `json:"user"`
}

func authError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"code":       status,
		"error_code": code,
		"msg":        msg,
	})
}

func (a *account) toJSON() userJSON {
	return userJSON{ID: a.id, Email: a.email, UserMetadata: map[string]string{"full_name": a.fullName}}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.takeFault(r.Method); ok {
		authError(w, f.status, "unexpected_failure", f.message)
		return
	}

	var req struct {
		Email    string            `json:"email"`
		Password string            `json:"password"`
		Data     map[string]string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		authError(w, http.StatusBadRequest, "email_address_invalid", "Unable to validate email address: invalid format")
		return
	}
	if len(req.Password) < minPasswordLength {
		authError(w, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		authError(w, http.StatusInternalServerError, "unexpected_failure", "failed to hash password")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		authError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}
	acct := &account{
		id:       uuid.NewString(),
		email:    email,
		fullName: req.Data["full_name"],
		hash:     hash,
		verified: !s.confirmEmail,
	}
	s.accounts[email] = acct
	var sess sessionJSON
	if acct.verified {
		sess = s.issueLocked(acct)
	}
	s.mu.Unlock()

	if !acct.verified {
		writeJSON(w, http.StatusOK, acct.toJSON())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if f, ok := s.takeFault(r.Method); ok {
		authError(w, f.status, "unexpected_failure", f.message)
		return
	}

	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	switch mux.Vars(r)["grant"] {
	case "password":
		s.passwordGrant(w, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	case "refresh_token":
		s.refreshGrant(w, req.RefreshToken)
	default:
		authError(w, http.StatusBadRequest, "validation_failed", "unsupported grant_type")
	}
}

func (s *Server) passwordGrant(w http.ResponseWriter, email, password string) {
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		authError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	if !acct.verified {
		authError(w, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
		return
	}

	s.mu.Lock()
	sess := s.issueLocked(acct)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) refreshGrant(w http.ResponseWriter, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.refresh[token]
	if !ok {
		authError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
		return
	}
	delete(s.refresh, token)
	writeJSON(w, http.StatusOK, s.issueLocked(s.accounts[email]))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearer(r)

	s.mu.Lock()
	email, ok := s.access[token]
	if ok {
		delete(s.access, token)
		for rt, e := range s.refresh {
			if e == email {
				delete(s.refresh, rt)
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	email, ok := s.access[bearer(r)]
	var acct *account
	if ok {
		acct = s.accounts[email]
	}
	s.mu.Unlock()

	if !ok {
		authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	writeJSON(w, http.StatusOK, acct.toJSON())
}

// issueLocked creates a new token pair. Caller must hold s.mu.
func (s *Server) issueLocked(acct *account) sessionJSON {
	access := s.newToken()
	refresh := s.newToken()
	s.access[access] = acct.email
	s.refresh[refresh] = acct.email

	return sessionJSON{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokenTTL.Seconds()),
		ExpiresAt:    s.now().Add(s.tokenTTL).Unix(),
		RefreshToken: refresh,
		User:         acct.toJSON(),
	}
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
