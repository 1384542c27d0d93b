package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/session"
)

// SessionKeeper owns the current session. *session.Manager implements it.
type SessionKeeper interface {
	session.Provider
	Load(ctx context.Context) (session.Session, bool, error)
	Establish(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
	Expired() bool
}

var _ SessionKeeper = (*session.Manager)(nil)

// SignUpForm is the sign-up screen input.
type SignUpForm struct {
	Name         string
	Email        string
	Password     string
	Confirmation string
}

// Auth drives the login and sign-up screens and owns session lifecycle.
type Auth struct {
	gw          gateway.AuthGateway
	sessions    SessionKeeper
	nav         Navigator
	notifier    Notifier
	logger      *slog.Logger
	minPassword int
}

// NewAuth creates the auth view-model.
func NewAuth(gw gateway.AuthGateway, sessions SessionKeeper, nav Navigator, notifier Notifier, opts ...Option) *Auth {
	o := buildOptions(opts)
	return &Auth{
		gw:          gw,
		sessions:    sessions,
		nav:         nav,
		notifier:    notifier,
		logger:      o.logger,
		minPassword: o.minPasswordLength,
	}
}

// SignUp registers an account. Input problems are reported as a
// *ValidationError before the backend is contacted. Both outcomes
// (signed in at once, or waiting for email confirmation) end on the
// login screen.
func (a *Auth) SignUp(ctx context.Context, form SignUpForm) (gateway.SessionOutcome, error) {
	if verr := a.validateSignUp(form); verr != nil {
		a.notifier.Notify(Notice{Level: NoticeError, Title: "Sign-up error", Message: verr.Message})
		return gateway.SessionOutcome{}, verr
	}

	email := strings.TrimSpace(form.Email)
	out, err := a.gw.SignUp(ctx, strings.TrimSpace(form.Name), email, form.Password)
	if err != nil {
		a.logger.Debug("sign-up failed", "email", email, "error", err)
		a.notifier.Notify(Notice{Level: NoticeError, Title: "Sign-up error", Message: gateway.Message(err)})
		return gateway.SessionOutcome{}, err
	}

	if out.Established() {
		if err := a.sessions.Establish(ctx, *out.Session); err != nil {
			a.notifier.Notify(Notice{Level: NoticeError, Title: "Sign-up error", Message: err.Error()})
			return out, err
		}
		a.notifier.Notify(Notice{Level: NoticeInfo, Title: "Sign-up complete", Message: "You are registered and signed in."})
	} else {
		a.notifier.Notify(Notice{Level: NoticeInfo, Title: "Almost done", Message: "Check your email to confirm your account before signing in."})
	}
	a.nav.NavigateTo(LoginScreen, Params{})
	return out, nil
}

func (a *Auth) validateSignUp(form SignUpForm) *ValidationError {
	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Email) == "" ||
		form.Password == "" || form.Confirmation == "" {
		return &ValidationError{Message: "Please fill in all fields."}
	}
	if form.Password != form.Confirmation {
		return &ValidationError{Field: "confirmation", Message: "Passwords do not match."}
	}
	if len([]rune(form.Password)) < a.minPassword {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters.", a.minPassword),
		}
	}
	return nil
}

// SignIn authenticates and makes the session current. The notice shows
// the backend message only; the returned error keeps its code so callers
// can still tell bad credentials from a network failure.
func (a *Auth) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		verr := &ValidationError{Message: "Please fill in all fields."}
		a.notifier.Notify(Notice{Level: NoticeError, Title: "Sign-in error", Message: verr.Message})
		return session.Session{}, verr
	}

	s, err := a.gw.SignIn(ctx, email, password)
	if err != nil {
		a.logger.Debug("sign-in failed", "email", email, "error", err)
		a.notifier.Notify(Notice{Level: NoticeError, Title: "Sign-in error", Message: gateway.Message(err)})
		return session.Session{}, err
	}
	if err := a.sessions.Establish(ctx, s); err != nil {
		a.notifier.Notify(Notice{Level: NoticeError, Title: "Sign-in error", Message: err.Error()})
		return session.Session{}, err
	}

	who := s.User.Email
	if who == "" {
		who = email
	}
	a.notifier.Notify(Notice{Level: NoticeInfo, Title: "Signed in", Message: fmt.Sprintf("Welcome, %s!", who)})
	a.nav.NavigateTo(ProductListScreen, Params{})
	return s, nil
}

// SignOut revokes the session on the server, best effort, and forgets
// it locally.
func (a *Auth) SignOut(ctx context.Context) error {
	if err := a.gw.SignOut(ctx); err != nil {
		a.logger.Warn("remote sign-out failed", "error", err)
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	a.nav.NavigateTo(LoginScreen, Params{})
	return nil
}

// Restore loads the persisted session at startup. An expired session is
// refreshed; when that fails it is cleared. It reports whether a usable
// session is current afterwards.
func (a *Auth) Restore(ctx context.Context) (session.Session, bool) {
	s, ok, err := a.sessions.Load(ctx)
	if err != nil {
		a.logger.Warn("could not restore session", "error", err)
		return session.Session{}, false
	}
	if !ok {
		return session.Session{}, false
	}
	if !a.sessions.Expired() {
		a.logger.Debug("session restored", "user", s.User.Email)
		return s, true
	}

	next, err := a.gw.Refresh(ctx, s.RefreshToken)
	if err != nil {
		a.logger.Info("session expired and could not be refreshed", "error", err)
		if err := a.sessions.Clear(ctx); err != nil {
			a.logger.Warn("could not clear session", "error", err)
		}
		return session.Session{}, false
	}
	if next.User.Email == "" {
		next.User = s.User
	}
	if err := a.sessions.Establish(ctx, next); err != nil {
		a.logger.Warn("could not persist refreshed session", "error", err)
		return session.Session{}, false
	}
	a.logger.Debug("session refreshed", "user", next.User.Email)
	return next, true
}

// CurrentSession returns the signed-in session, if any.
func (a *Auth) CurrentSession() (session.Session, bool) {
	return a.sessions.CurrentSession()
}
