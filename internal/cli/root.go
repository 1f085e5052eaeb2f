// Package cli implements dashctl, a terminal client for the admin gateway.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	API       string
	Format    string // "json" | "text"
	TokenFile string
	Verbose   bool

	// client overrides the gateway client in tests.
	client gatewayAPI
	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the dashctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dashctl",
		Short:         "Learning analytics admin dashboard in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.logger == nil {
				opts.logger = logger.NewCLI(opts.Verbose)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.API, "api", envOr("DASHCTL_API", "http://localhost:8080/api/v1"), "gateway base URL")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.TokenFile, "token-file", defaultTokenFile(), "where the session token is kept")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newTableCommand(opts, studentsTable))
	cmd.AddCommand(newTableCommand(opts, coursesTable))
	cmd.AddCommand(newTableCommand(opts, reportsTable))
	cmd.AddCommand(newTableCommand(opts, interactionsTable))
	cmd.AddCommand(newLogsCommand(opts))
	cmd.AddCommand(newContactCommand(opts))

	return cmd
}

func (o *RootOptions) gateway() gatewayAPI {
	if o.client != nil {
		return o.client
	}
	o.client = upstream.New(upstream.Config{BaseURL: o.API, Logger: o.logger})
	return o.client
}

func defaultTokenFile() string {
	if v := os.Getenv("DASHCTL_TOKEN_FILE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dashctl-token"
	}
	return filepath.Join(home, ".dashctl", "token")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
