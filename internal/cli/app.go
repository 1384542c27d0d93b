package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/session"
	"github.com/roach88/storefront/internal/store"
	"github.com/roach88/storefront/internal/viewmodel"
)

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	store    *store.Store
	sessions *session.Manager
	gw       *gateway.Client
	logger   *slog.Logger
	out      *OutputFormatter
}

// newLogger returns a text logger on w. Verbose mode lowers the level to
// debug so request and session logs show.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig layers the flags over the file and environment, then
// validates the result.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, os.Getenv)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.URL != "" {
		cfg.Backend.URL = opts.URL
	}
	if opts.AnonKey != "" {
		cfg.Backend.AnonKey = opts.AnonKey
	}
	if opts.StatePath != "" {
		cfg.Storage.Path = opts.StatePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// openApp loads configuration, opens the state database and builds the
// gateway. Callers must call close.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := newFormatter(opts, cmd)
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	out.Dump("configuration", cfg.Redacted())

	if cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create state directory", err)
		}
	}
	logger.Debug("opening state database", "path", cfg.Storage.Path)
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open state database", err)
	}

	sessions := session.NewManager(st,
		session.WithPassphrase(cfg.Storage.Passphrase),
		session.WithLogger(logger),
	)
	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.Backend.URL,
		AnonKey:  cfg.Backend.AnonKey,
		Table:    cfg.Backend.Table,
		HTTP:     &http.Client{Timeout: cfg.Backend.Timeout.Std()},
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create backend client", err)
	}

	return &app{cfg: cfg, store: st, sessions: sessions, gw: gw, logger: logger, out: out}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing state database", "error", err)
	}
}

func (a *app) vmOptions() []viewmodel.Option {
	return []viewmodel.Option{
		viewmodel.WithLogger(a.logger),
		viewmodel.WithMinPasswordLength(a.cfg.Auth.MinPasswordLength),
	}
}

func (a *app) price(p catalog.Price) string {
	return p.Format(a.cfg.LanguageTag(), a.cfg.Display.Currency)
}

// fail reports err in the configured format and returns the ExitError
// the command should end with.
func (a *app) fail(err error) error {
	code, exit := classify(err)
	msg := gateway.Message(err)
	if err := a.out.Error(code, msg, nil); err != nil {
		return err
	}
	return WrapExitError(exit, msg, err)
}

// classify maps an error to a JSON error code and an exit code.
func classify(err error) (string, int) {
	var verr *viewmodel.ValidationError
	if errors.As(err, &verr) {
		return "E_VALIDATION", ExitCommandError
	}
	var ae *gateway.AuthError
	if errors.As(err, &ae) {
		return "E_AUTH_" + strings.ToUpper(string(ae.Code)), ExitFailure
	}
	var de *gateway.DataError
	if errors.As(err, &de) {
		return "E_DATA_" + strings.ToUpper(string(de.Code)), ExitFailure
	}
	return "E_FAILED", ExitFailure
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func parseProductID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid product id %q", arg))
	}
	return id, nil
}
