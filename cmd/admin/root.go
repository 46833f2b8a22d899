package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"txaudit/internal/infrastructure/sqlstore"
	"txaudit/internal/shared/config"
	"txaudit/internal/shared/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile  string
	Driver   string
	DSN      string
	LogLevel string

	log zerolog.Logger
}

// NewRootCommand creates the root command for the admin CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "admin",
		Short:        "txaudit admin - management commands for the transaction audit store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.log = logger.New(logger.Options{Level: opts.LogLevel, Pretty: true, Out: cmd.ErrOrStderr()})
			return config.LoadEnvFile(opts.EnvFile)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "file of KEY=VALUE pairs to load before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (postgres|sqlite), overrides DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "connection string or SQLite path, overrides the DB_* settings")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level")

	// Add subcommands
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// openStore connects using the environment, with flag overrides, and brings
// the schema up to date.
func (o *RootOptions) openStore(ctx context.Context) (*sqlstore.DB, error) {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	if o.Driver != "" {
		dbCfg.Driver = strings.ToLower(o.Driver)
	}

	dsn := dbCfg.DSN()
	if o.DSN != "" {
		dsn = o.DSN
	}

	dialect, err := sqlstore.ParseDialect(dbCfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
