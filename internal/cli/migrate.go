package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/localwiki/wikitags/migrations"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProvider(cmd.Context(), opts, func(p *goose.Provider) error {
					results, err := p.Up(cmd.Context())
					if err != nil {
						return fmt.Errorf("migrate up: %w", err)
					}
					printResults(cmd.OutOrStdout(), results)
					opts.log.Info("migrations applied", "count", len(results))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProvider(cmd.Context(), opts, func(p *goose.Provider) error {
					result, err := p.Down(cmd.Context())
					if err != nil {
						return fmt.Errorf("migrate down: %w", err)
					}
					printResults(cmd.OutOrStdout(), []*goose.MigrationResult{result})
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withProvider(cmd.Context(), opts, func(p *goose.Provider) error {
					statuses, err := p.Status(cmd.Context())
					if err != nil {
						return fmt.Errorf("migrate status: %w", err)
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
					for _, s := range statuses {
						applied := "-"
						if !s.AppliedAt.IsZero() {
							applied = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

func withProvider(ctx context.Context, opts *options, fn func(*goose.Provider) error) error {
	if err := opts.requireDatabaseURL(); err != nil {
		return err
	}
	db, err := migrations.Open(ctx, opts.databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	return fn(p)
}

func printResults(w io.Writer, results []*goose.MigrationResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no migrations to run")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s %d %s (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration)
	}
}
