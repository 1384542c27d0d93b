package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Overrides for the configuration file and environment.
	ConfigPath string
	URL        string
	AnonKey    string
	StatePath  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storefront CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "storefront - a product catalog client",
		Long: `A client for a product catalog kept on a hosted backend.

Sign up or sign in, then list, show, create, update and delete products
from the command line or from the interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default $STOREFRONT_CONFIG or ~/.storefront/config.yaml)")
	flags.StringVar(&opts.URL, "url", "", "backend URL")
	flags.StringVar(&opts.AnonKey, "anon-key", "", "backend API key")
	flags.StringVar(&opts.StatePath, "state", "", "local state database")

	cmd.AddCommand(NewSignUpCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewMockBackendCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
