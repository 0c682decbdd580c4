package cli

import (
	"fmt"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ok, err := migratableConfig(cmd, opts)
			if err != nil || !ok {
				return err
			}
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return err
			}
			return printVersion(cmd, cfg)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			cfg, ok, err := migratableConfig(cmd, opts)
			if err != nil || !ok {
				return err
			}
			if err := db.MigrateDown(cfg.DBURL, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ok, err := migratableConfig(cmd, opts)
			if err != nil || !ok {
				return err
			}
			return printVersion(cmd, cfg)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

// migratableConfig returns ok=false for the memory store, which has no schema.
func migratableConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, bool, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return config.Config{}, false, err
	}

	if cfg.Store == config.StoreMemory {
		fmt.Fprintln(cmd.OutOrStdout(), "memory store: nothing to migrate")
		return cfg, false, nil
	}
	if cfg.DBURL == "" {
		return cfg, false, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, true, nil
}

func printVersion(cmd *cobra.Command, cfg config.Config) error {
	v, dirty, err := db.MigrationVersion(cfg.DBURL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case v == 0:
		fmt.Fprintln(out, "schema version: none")
	case dirty:
		fmt.Fprintf(out, "schema version: %d (dirty)\n", v)
	default:
		fmt.Fprintf(out, "schema version: %d\n", v)
	}
	return nil
}
