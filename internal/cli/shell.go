package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/shell"
)

// NewShellCommand creates the interactive shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive catalog shell",
		Long: `Start an interactive shell with the login, product list, detail and form
screens. The stored session is restored at startup. Type 'help' inside the
shell for its commands; Ctrl-D or 'quit' leaves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext(cmd.Context(), a.logger)
			defer cancel()

			sh := shell.New(shell.Config{
				In:                cmd.InOrStdin(),
				Out:               cmd.OutOrStdout(),
				Gateway:           a.gw,
				Sessions:          a.sessions,
				Locale:            a.cfg.LanguageTag(),
				Currency:          a.cfg.Display.Currency,
				MinPasswordLength: a.cfg.Auth.MinPasswordLength,
				Logger:            a.logger,
			})
			if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return WrapExitError(ExitFailure, "shell error", err)
			}
			return nil
		},
	}
}
