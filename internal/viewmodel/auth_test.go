package viewmodel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/session"
	"github.com/roach88/storefront/internal/testutil"
	"github.com/roach88/storefront/internal/viewmodel"
)

type authFixture struct {
	gw       *testutil.FakeGateway
	rec      *testutil.Recorder
	clock    *testutil.FixedClock
	store    *testutil.MemStore
	sessions *session.Manager
	auth     *viewmodel.Auth
}

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newAuthFixture(opts ...viewmodel.Option) *authFixture {
	f := &authFixture{
		gw:    testutil.NewFakeGateway(),
		rec:   testutil.NewRecorder(),
		clock: testutil.NewFixedClock(epoch),
		store: testutil.NewMemStore(),
	}
	f.sessions = session.NewManager(f.store, session.WithClock(f.clock.Now))
	f.auth = viewmodel.NewAuth(f.gw, f.sessions, f.rec, f.rec, opts...)
	return f
}

func testSession(token string) session.Session {
	return session.Session{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    epoch.Add(time.Hour),
		User:         session.User{ID: "u1", Email: "ana@example.com", FullName: "Ana"},
	}
}

func TestAuth_SignUpLocalValidation(t *testing.T) {
	tests := []struct {
		name string
		form viewmodel.SignUpForm
		msg  string
	}{
		{"empty name", viewmodel.SignUpForm{Email: "a@b.c", Password: "secret1", Confirmation: "secret1"}, "Please fill in all fields."},
		{"empty confirmation", viewmodel.SignUpForm{Name: "Ana", Email: "a@b.c", Password: "secret1"}, "Please fill in all fields."},
		{"mismatch", viewmodel.SignUpForm{Name: "Ana", Email: "a@b.c", Password: "secret1", Confirmation: "secret2"}, "Passwords do not match."},
		{"short password", viewmodel.SignUpForm{Name: "Ana", Email: "a@b.c", Password: "abc", Confirmation: "abc"}, "Password must be at least 6 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()

			_, err := f.auth.SignUp(context.Background(), tt.form)

			var verr *viewmodel.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.msg, verr.Message)
			assert.Empty(t, f.gw.Calls(), "local validation must not reach the gateway")
			assert.Empty(t, f.rec.Navigations())
		})
	}
}

func TestAuth_SignUpMinLengthConfigurable(t *testing.T) {
	f := newAuthFixture(viewmodel.WithMinPasswordLength(10))

	_, err := f.auth.SignUp(context.Background(), viewmodel.SignUpForm{
		Name: "Ana", Email: "a@b.c", Password: "secret12", Confirmation: "secret12",
	})
	assert.EqualError(t, err, "Password must be at least 10 characters.")
}

func TestAuth_SignUpEstablished(t *testing.T) {
	f := newAuthFixture()
	s := testSession("tok")
	f.gw.Script(testutil.MethodSignUp, testutil.Response{Outcome: gateway.SessionEstablished(s)})
	ctx := context.Background()

	out, err := f.auth.SignUp(ctx, viewmodel.SignUpForm{
		Name: "Ana", Email: " ana@example.com ", Password: "secret1", Confirmation: "secret1",
	})
	require.NoError(t, err)
	assert.True(t, out.Established())

	current, ok := f.sessions.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "tok", current.AccessToken)

	assert.Equal(t, []testutil.Call{{Method: testutil.MethodSignUp, Arg: "email=ana@example.com"}}, f.gw.Calls())
	assert.Equal(t, []testutil.Navigation{{Screen: viewmodel.LoginScreen}}, f.rec.Navigations())
}

func TestAuth_SignUpPending(t *testing.T) {
	f := newAuthFixture()
	f.gw.Script(testutil.MethodSignUp, testutil.Response{
		Outcome: gateway.ConfirmationPending(session.User{Email: "ana@example.com"}),
	})

	out, err := f.auth.SignUp(context.Background(), viewmodel.SignUpForm{
		Name: "Ana", Email: "ana@example.com", Password: "secret1", Confirmation: "secret1",
	})
	require.NoError(t, err)
	assert.False(t, out.Established())

	_, ok := f.sessions.CurrentSession()
	assert.False(t, ok)
	n, _ := f.rec.LastNotice()
	assert.Contains(t, n.Message, "confirm your account")
	assert.Equal(t, []testutil.Navigation{{Screen: viewmodel.LoginScreen}}, f.rec.Navigations())
}

func TestAuth_SignUpDuplicate(t *testing.T) {
	f := newAuthFixture()
	f.gw.Script(testutil.MethodSignUp, testutil.Response{
		Err: &gateway.AuthError{Code: gateway.AuthDuplicateAccount, Message: "User already registered"},
	})

	_, err := f.auth.SignUp(context.Background(), viewmodel.SignUpForm{
		Name: "Ana", Email: "ana@example.com", Password: "secret1", Confirmation: "secret1",
	})
	assert.True(t, gateway.IsDuplicateAccount(err))
	n, _ := f.rec.LastNotice()
	assert.Equal(t, "User already registered", n.Message)
	assert.Empty(t, f.rec.Navigations())
}

func TestAuth_SignIn(t *testing.T) {
	f := newAuthFixture()
	f.gw.Script(testutil.MethodSignIn, testutil.Response{Session: testSession("tok")})
	ctx := context.Background()

	s, err := f.auth.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)

	raw, ok, err := f.store.Get(ctx, session.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), "tok")

	n, _ := f.rec.LastNotice()
	assert.Equal(t, "Welcome, ana@example.com!", n.Message)
	assert.Equal(t, []testutil.Navigation{{Screen: viewmodel.ProductListScreen}}, f.rec.Navigations())
}

func TestAuth_SignInKeepsErrorCodes(t *testing.T) {
	f := newAuthFixture()
	f.gw.Script(testutil.MethodSignIn,
		testutil.Response{Err: &gateway.AuthError{Code: gateway.AuthInvalidCredentials, Message: "Invalid login credentials"}},
		testutil.Response{Err: &gateway.AuthError{Code: gateway.AuthTransport, Message: "network unreachable"}},
	)
	ctx := context.Background()

	_, err := f.auth.SignIn(ctx, "ana@example.com", "bad")
	assert.True(t, gateway.IsInvalidCredentials(err))
	_, err = f.auth.SignIn(ctx, "ana@example.com", "bad")
	assert.True(t, gateway.IsTransport(err))

	notices := f.rec.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, notices[0].Title, notices[1].Title)
	assert.Equal(t, "Invalid login credentials", notices[0].Message)
	assert.Equal(t, "network unreachable", notices[1].Message)
	assert.Empty(t, f.rec.Navigations())
}

func TestAuth_SignInRequiresFields(t *testing.T) {
	f := newAuthFixture()

	_, err := f.auth.SignIn(context.Background(), "  ", "secret1")
	var verr *viewmodel.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, f.gw.Calls())
}

func TestAuth_SignOut(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	require.NoError(t, f.sessions.Establish(ctx, testSession("tok")))
	f.gw.Script(testutil.MethodSignOut, testutil.Response{Err: errors.New("network unreachable")})

	require.NoError(t, f.auth.SignOut(ctx))

	_, ok := f.sessions.CurrentSession()
	assert.False(t, ok)
	_, ok, _ = f.store.Get(ctx, session.StorageKey)
	assert.False(t, ok)
	assert.Equal(t, []testutil.Navigation{{Screen: viewmodel.LoginScreen}}, f.rec.Navigations())
}

func TestAuth_RestoreValid(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	require.NoError(t, f.sessions.Establish(ctx, testSession("tok")))

	restored := viewmodel.NewAuth(f.gw, session.NewManager(f.store, session.WithClock(f.clock.Now)), f.rec, f.rec)
	s, ok := restored.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Empty(t, f.gw.Calls())
}

func TestAuth_RestoreRefreshesExpired(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	require.NoError(t, f.sessions.Establish(ctx, testSession("old")))
	f.clock.Advance(2 * time.Hour)

	next := testSession("new")
	next.ExpiresAt = f.clock.Now().Add(time.Hour)
	next.User = session.User{}
	f.gw.Script(testutil.MethodRefresh, testutil.Response{Session: next})

	s, ok := f.auth.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "new", s.AccessToken)
	assert.Equal(t, "ana@example.com", s.User.Email)

	current, _ := f.sessions.CurrentSession()
	assert.Equal(t, "new", current.AccessToken)
}

func TestAuth_RestoreClearsWhenRefreshFails(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	require.NoError(t, f.sessions.Establish(ctx, testSession("old")))
	f.clock.Advance(2 * time.Hour)
	f.gw.Script(testutil.MethodRefresh, testutil.Response{
		Err: &gateway.AuthError{Code: gateway.AuthInvalidCredentials, Message: "Invalid Refresh Token"},
	})

	_, ok := f.auth.Restore(ctx)
	assert.False(t, ok)
	_, ok = f.sessions.CurrentSession()
	assert.False(t, ok)
	_, ok, _ = f.store.Get(ctx, session.StorageKey)
	assert.False(t, ok)
}

func TestAuth_RestoreNothingStored(t *testing.T) {
	f := newAuthFixture()
	_, ok := f.auth.Restore(context.Background())
	assert.False(t, ok)
}
