package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/localwiki/wikitags/internal/service"
)

func newRegionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "region",
		Short: "Manage regions",
	}
	cmd.AddCommand(newRegionCreateCmd(opts), newRegionListCmd(opts))
	return cmd
}

func newRegionCreateCmd(opts *options) *cobra.Command {
	var slug string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, pool, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			region, err := service.NewRegionService(store.Regions).Create(cmd.Context(), args[0], slug)
			if err != nil {
				return err
			}
			opts.log.Debug("region created", "id", region.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", region.Slug, region.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "URL slug (default: normalized name)")
	return cmd
}

func newRegionListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, pool, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			regions, err := service.NewRegionService(store.Regions).List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tCREATED")
			for _, r := range regions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Slug, r.Name, r.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
}
