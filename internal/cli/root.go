// Package cli implements todoctl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/todolist/internal/app"
	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
	Verbose bool

	build func(ctx context.Context, cfg config.Config, log *slog.Logger) (*app.App, error)
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{build: app.Build})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todoctl",
		Short: "Operate a todolist deployment",
		Long: `todoctl runs schema migrations, seeds the identity data, creates
accounts and exports the admin CSV reports against the store named by the
environment (STORE, DATABASE_URL, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newSweepCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	env := "prod"
	if o.Verbose {
		env = "dev"
	}
	return observability.NewLoggerTo(cmd.ErrOrStderr(), env)
}

// openApp loads and validates the config and wires the services.
func (o *RootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return o.build(cmd.Context(), cfg, o.logger(cmd))
}
