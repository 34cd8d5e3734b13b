// Package cli implements tagctl, the administrative command line for the
// wiki tags service.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/localwiki/wikitags/internal/repo"
)

// options holds the global flags shared by every subcommand.
type options struct {
	databaseURL string
	verbose     bool
	log         *slog.Logger
}

// NewRootCmd creates the tagctl root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "tagctl",
		Short: "Administer the wiki tags service",
		Long: `tagctl manages the wiki tags database and offers offline helpers
for the tag normalizer and three-way tag merge.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"),
		"Postgres connection string (default $DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newMigrateCmd(opts),
		newRegionCmd(opts),
		newSlugifyCmd(),
		newMergeCmd(),
	)
	return rootCmd
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func (o *options) requireDatabaseURL() error {
	if o.databaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return nil
}

// openStore connects a pool and returns the repos bound to it. The caller
// must close the pool.
func (o *options) openStore(ctx context.Context) (*repo.Store, *pgxpool.Pool, error) {
	if err := o.requireDatabaseURL(); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, o.databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return repo.NewStore(pool), pool, nil
}
