package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/localwiki/wikitags/internal/tagset"
)

func newSlugifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slugify <name>...",
		Short: "Print the tag slug of each name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tagset.Slugify(name), name)
			}
			return nil
		},
	}
}

func newMergeCmd() *cobra.Command {
	var yours, theirs, ancestor string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Three-way merge of comma-separated tag lists",
		Long: `merge combines two concurrent edits of a tag list the way a conflicting
save is merged: tags removed on either side since the ancestor stay removed,
tags added on either side are kept. Tags are matched by slug.`,
		Example: `  tagctl merge --ancestor "parks, beaches" --yours "parks" --theirs "parks, beaches, hiking"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := offlineMerge(cmd.Context(), yours, theirs, ancestor, cmd.Flags().Changed("ancestor"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&yours, "yours", "", "Your edited tag list")
	cmd.Flags().StringVar(&theirs, "theirs", "", "The concurrently saved tag list")
	cmd.Flags().StringVar(&ancestor, "ancestor", "", "The tag list both edits started from (omit for none)")
	return cmd
}

// offlineMerge runs tagset.Merge over editor strings. Tag keys are derived
// from slugs, and the ancestor's historic keys are its list positions.
func offlineMerge(ctx context.Context, yours, theirs, ancestor string, hasAncestor bool) (string, error) {
	names := map[uuid.UUID]string{}
	keys := func(text string) (tagset.KeySet, []uuid.UUID) {
		set := tagset.NewKeySet()
		var order []uuid.UUID
		for _, word := range tagset.ParseTags(text) {
			slug := tagset.Slugify(word)
			if slug == "" {
				continue
			}
			id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(slug))
			if _, ok := names[id]; !ok {
				names[id] = word
			}
			if !set.Has(id) {
				set[id] = struct{}{}
				order = append(order, id)
			}
		}
		return set, order
	}

	y, _ := keys(yours)
	t, _ := keys(theirs)
	_, base := keys(ancestor)

	var historic []int64
	if hasAncestor {
		historic = make([]int64, len(base))
		for i := range base {
			historic[i] = int64(i + 1)
		}
	}
	resolver := tagset.ResolverFunc(func(_ context.Context, hid int64) (uuid.UUID, bool, error) {
		if hid < 1 || hid > int64(len(base)) {
			return uuid.Nil, false, nil
		}
		return base[hid-1], true, nil
	})

	merged, err := tagset.Merge(ctx, y, t, historic, resolver)
	if err != nil {
		return "", err
	}

	out := make([]string, 0, len(merged))
	for id := range merged {
		out = append(out, names[id])
	}
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(tagset.Slugify(a), tagset.Slugify(b))
	})
	return tagset.ToEditString(out), nil
}
