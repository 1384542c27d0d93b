package gateway

import (
	"context"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/session"
)

// AuthGateway is the authentication half of the backend.
type AuthGateway interface {
	// SignUp registers an account. The outcome is either an established
	// session or a pending email confirmation.
	SignUp(ctx context.Context, name, email, password string) (SessionOutcome, error)

	// SignIn exchanges credentials for a session.
	SignIn(ctx context.Context, email, password string) (session.Session, error)

	// SignOut revokes the current session on the server.
	SignOut(ctx context.Context) error

	// Refresh exchanges a refresh token for a new session.
	Refresh(ctx context.Context, refreshToken string) (session.Session, error)
}

// CatalogGateway is the data half of the backend.
type CatalogGateway interface {
	// ListEntries returns all entries ordered by the server.
	// An empty result is a success.
	ListEntries(ctx context.Context, orderBy string, ascending bool) ([]catalog.Entry, error)

	// GetEntry returns one entry or a DataNotFound error.
	GetEntry(ctx context.Context, id int64) (catalog.Entry, error)

	// DeleteEntry deletes by id. The outcome for a missing id is whatever
	// the server reports.
	DeleteEntry(ctx context.Context, id int64) error

	// UpsertEntry creates the entry when draft.ID is zero and updates it
	// otherwise, returning the stored row.
	UpsertEntry(ctx context.Context, draft catalog.Draft) (catalog.Entry, error)
}

// Gateway is the full backend surface.
type Gateway interface {
	AuthGateway
	CatalogGateway
}

// SessionOutcome is the result of a successful sign-up.
type SessionOutcome struct {
	// Session is set when the account was created and signed in at once.
	Session *session.Session

	// User is the created account, known in both outcomes.
	User session.User
}

// SessionEstablished returns an outcome carrying s.
func SessionEstablished(s session.Session) SessionOutcome {
	return SessionOutcome{Session: &s, User: s.User}
}

// ConfirmationPending returns an outcome for an account awaiting email
// confirmation.
func ConfirmationPending(u session.User) SessionOutcome {
	return SessionOutcome{User: u}
}

// Established reports whether the sign-up produced a session.
func (o SessionOutcome) Established() bool {
	return o.Session != nil
}
