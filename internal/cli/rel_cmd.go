package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/spf13/cobra"
)

func newRelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rel",
		Aliases: []string{"relation", "relations"},
		Short:   "Manage relations between work items",
	}

	cmd.AddCommand(
		newRelCreateCmd(app),
		newRelListCmd(app),
		newRelLagCmd(app),
		newRelDeleteCmd(app),
	)

	return cmd
}

func newRelCreateCmd(app *App) *cobra.Command {
	var lag int

	cmd := &cobra.Command{
		Use:   "create FROM follows|precedes|parent_child TO",
		Short: "Relate two work items",
		Long: `Relate two work items.

  cadence rel create B follows A      B starts after A is due
  cadence rel create A precedes B     same as above
  cadence rel create P parent_child C C becomes a child of P`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids, err := resolveWorkItemIDs(ctx, app, []string{args[0], args[2]})
			if err != nil {
				return err
			}
			rel := &domain.Relation{
				Type:   domain.RelationType(args[1]),
				FromID: ids[0],
				ToID:   ids[1],
				Lag:    lag,
			}

			outcome, err := app.Relations.Create(ctx, rel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rel.Type == domain.RelationParentChild {
				fmt.Fprintln(out, "Moved work item under its new parent")
			} else {
				fmt.Fprintf(out, "Created relation %s\n", rel.ID)
			}
			fmt.Fprint(out, formatter.FormatOutcome(outcome))
			return nil
		},
	}
	cmd.Flags().IntVar(&lag, "lag", 0, "Working days between predecessor due and successor start")
	return cmd
}

func newRelListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [ITEM_ID]",
		Short: "List follows relations, optionally of one work item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var id string
			if len(args) == 1 {
				resolved, err := resolveWorkItemID(ctx, app, args[0])
				if err != nil {
					return err
				}
				id = resolved
			}
			rels, err := app.Relations.List(ctx, id)
			if err != nil {
				return err
			}
			names, err := subjectsByID(cmd, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRelationTable(rels, names))
			return nil
		},
	}
}

func newRelLagCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lag RELATION_ID DAYS",
		Short: "Change the lag of a relation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lag, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("lag must be a whole number of days, got %q", args[1])
			}
			outcome, err := app.Relations.UpdateLag(cmd.Context(), args[0], lag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Relation %s lag set to %d\n", args[0], lag)
			fmt.Fprint(out, formatter.FormatOutcome(outcome))
			return nil
		},
	}
}

func newRelDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RELATION_ID",
		Short: "Delete a relation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := app.Relations.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted relation %s\n", args[0])
			fmt.Fprint(out, formatter.FormatOutcome(outcome))
			return nil
		},
	}
}

func subjectsByID(cmd *cobra.Command, app *App) (map[string]string, error) {
	items, err := app.WorkItems.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, w := range items {
		names[w.ID] = w.Subject
	}
	return names, nil
}
