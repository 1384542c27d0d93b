package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/backendsim"
)

// MockBackendOptions holds flags for the mock-backend command.
type MockBackendOptions struct {
	*RootOptions
	Addr         string
	Key          string
	ConfirmEmail bool
	Seed         bool

	// ready, when set, receives the listening address (for tests).
	ready chan<- string
}

// NewMockBackendCommand creates the mock-backend command.
func NewMockBackendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MockBackendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run an in-memory backend for local use",
		Long: `Serve the auth and catalog endpoints from memory. Accounts and products
are lost when the process stops.

Example:
  storefront mock-backend --addr 127.0.0.1:54321 --seed
  STOREFRONT_URL=http://127.0.0.1:54321 STOREFRONT_ANON_KEY=anon storefront shell`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMockBackend(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:54321", "listen address")
	cmd.Flags().StringVar(&opts.Key, "key", "anon", "API key clients must send")
	cmd.Flags().BoolVar(&opts.ConfirmEmail, "confirm-email", false, "require email confirmation after sign-up")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "start with sample products")

	return cmd
}

func runMockBackend(opts *MockBackendOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	simOpts := []backendsim.Option{backendsim.WithAnonKey(opts.Key)}
	if opts.ConfirmEmail {
		simOpts = append(simOpts, backendsim.WithEmailConfirmation())
	}
	sim := backendsim.New(simOpts...)
	if opts.Seed {
		sim.Seed(sampleRows()...)
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	url := "http://" + ln.Addr().String()
	logger.Info("mock backend listening", "url", url, "confirm_email", opts.ConfirmEmail)
	fmt.Fprintf(cmd.OutOrStdout(), "Mock backend listening on %s (API key %q)\n", url, opts.Key)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")
	if opts.ready != nil {
		opts.ready <- url
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown error", err)
	}
	logger.Info("mock backend stopped")
	return nil
}

func sampleRows() []backendsim.Row {
	return []backendsim.Row{
		{Name: "Caneca", Description: "Caneca de cerâmica, 300 ml", Price: []byte(`25.9`)},
		{Name: "Camiseta", Description: "Algodão, tamanho M", Price: []byte(`59.9`)},
		{Name: "Livro de receitas", Price: []byte(`"89.00"`)},
	}
}
