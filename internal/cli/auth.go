package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/session"
	"github.com/roach88/storefront/internal/viewmodel"
)

// userResult is the JSON payload of the auth commands.
type userResult struct {
	User      session.User `json:"user"`
	SignedIn  bool         `json:"signed_in"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

func sessionResult(s session.Session) userResult {
	r := userResult{User: s.User, SignedIn: true}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		r.ExpiresAt = &t
	}
	return r
}

// NewSignUpCommand creates the signup command.
func NewSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	var form viewmodel.SignUpForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account on the backend.

Depending on the backend, the account is signed in at once or waits for
email confirmation before the first login.

Example:
  storefront signup --name Ana --email ana@example.com --password s3cret! --confirm-password s3cret!`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignUp(rootOpts, form, cmd)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "password")
	cmd.Flags().StringVar(&form.Confirmation, "confirm-password", "", "password again")

	return cmd
}

func runSignUp(opts *RootOptions, form viewmodel.SignUpForm, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ui := newUI(a.out, cmd.InOrStdin(), false)
	auth := viewmodel.NewAuth(a.gw, a.sessions, ui, ui, a.vmOptions()...)
	outcome, err := auth.SignUp(cmd.Context(), form)
	if err != nil {
		return a.fail(err)
	}

	if a.out.JSON() {
		r := userResult{User: outcome.User}
		if outcome.Established() {
			r = sessionResult(*outcome.Session)
		}
		return a.out.Success(r)
	}
	return nil
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Long: `Sign in with email and password. The session is stored in the local
state database (sealed when storage.passphrase is set) and reused by later
commands until it expires or you log out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(rootOpts, email, password, cmd)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")

	return cmd
}

func runLogin(opts *RootOptions, email, password string, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ui := newUI(a.out, cmd.InOrStdin(), false)
	auth := viewmodel.NewAuth(a.gw, a.sessions, ui, ui, a.vmOptions()...)
	s, err := auth.SignIn(cmd.Context(), email, password)
	if err != nil {
		return a.fail(err)
	}
	if a.out.JSON() {
		return a.out.Success(sessionResult(s))
	}
	return nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ui := newUI(a.out, cmd.InOrStdin(), false)
			auth := viewmodel.NewAuth(a.gw, a.sessions, ui, ui, a.vmOptions()...)
			_, wasSignedIn := auth.Restore(cmd.Context())
			if err := auth.SignOut(cmd.Context()); err != nil {
				return a.fail(err)
			}

			if a.out.JSON() {
				return a.out.Success(map[string]bool{"signed_out": wasSignedIn})
			}
			if wasSignedIn {
				fmt.Fprintln(a.out.Writer, "Signed out.")
			} else {
				fmt.Fprintln(a.out.Writer, "Not signed in.")
			}
			return nil
		},
	}
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the user of the stored session. An expired session is refreshed
first; when that fails the session is cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ui := newUI(a.out, cmd.InOrStdin(), false)
			auth := viewmodel.NewAuth(a.gw, a.sessions, ui, ui, a.vmOptions()...)
			s, ok := auth.Restore(cmd.Context())
			if !ok {
				if err := a.out.Error("E_NOT_SIGNED_IN", "not signed in", nil); err != nil {
					return err
				}
				return NewExitError(ExitFailure, "not signed in")
			}
			a.out.Dump("session", s.User)
			if a.out.Verbose {
				keys, err := a.store.Keys(cmd.Context())
				if err != nil {
					return a.fail(err)
				}
				a.out.Dump("stored keys", keys)
			}

			if a.out.JSON() {
				return a.out.Success(sessionResult(s))
			}
			if s.User.FullName != "" {
				fmt.Fprintf(a.out.Writer, "%s (%s)\n", s.User.Email, s.User.FullName)
			} else {
				fmt.Fprintln(a.out.Writer, s.User.Email)
			}
			return nil
		},
	}
}
