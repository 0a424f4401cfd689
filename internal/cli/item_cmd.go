package cli

import (
	"fmt"
	"time"

	sched "github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage work items",
	}

	cmd.AddCommand(
		newItemCreateCmd(app),
		newItemListCmd(app),
		newItemShowCmd(app),
		newItemDatesCmd(app),
		newItemModeCmd(app),
		newItemIgnoreNonWorkingCmd(app),
		newItemParentCmd(app),
		newItemDeleteCmd(app),
		newItemHistoryCmd(app),
	)

	return cmd
}

func newItemCreateCmd(app *App) *cobra.Command {
	var (
		subject, parent string
		start, due      *time.Time
		duration        int
		mode            domain.ScheduleMode
		ignoreNonWork   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := &domain.WorkItem{
				Subject:              subject,
				StartDate:            start,
				DueDate:              due,
				Duration:             optionalInt(cmd.Flags(), "duration", duration),
				ScheduleMode:         mode,
				IgnoreNonWorkingDays: ignoreNonWork,
			}
			if parent != "" {
				parentID, err := resolveWorkItemID(ctx, app, parent)
				if err != nil {
					return err
				}
				w.ParentID = &parentID
			}

			outcome, err := app.WorkItems.Create(ctx, w)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created work item %s (%s)\n", formatter.Bold(w.Subject), w.ID)
			fmt.Fprintf(out, "  %s\n", formatter.FormatSpan(w.StartDate, w.DueDate))
			fmt.Fprint(out, formatter.FormatOutcome(outcome))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Work item subject")
	cmd.Flags().Var(newDateValue(&start), "start", "Start date (YYYY-MM-DD)")
	cmd.Flags().Var(newDateValue(&due), "due", "Due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in working days")
	cmd.Flags().Var(newModeValue(&mode, domain.ScheduleManual), "mode", "Scheduling mode (manual or automatic)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent work item ID")
	cmd.Flags().BoolVar(&ignoreNonWork, "ignore-non-working-days", false, "Count every calendar day as working")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func newItemListCmd(app *App) *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.WorkItems.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if tree {
				if len(items) == 0 {
					fmt.Fprintln(out, formatter.Dim("No work items."))
					return nil
				}
				fmt.Fprint(out, formatter.RenderTree(formatter.BuildItemTree(items)))
				return nil
			}
			fmt.Fprint(out, formatter.FormatWorkItemTable(items))
			return nil
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "Show the parent/child hierarchy")
	return cmd
}

func newItemShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show work item details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveWorkItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			w, err := app.WorkItems.GetByID(ctx, id)
			if err != nil {
				return err
			}
			children, err := app.WorkItems.ListChildren(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatWorkItem(w, children))
			return nil
		},
	}
}

func newItemDatesCmd(app *App) *cobra.Command {
	var (
		start, due *time.Time
		duration   int
		clearDue   bool
	)

	cmd := &cobra.Command{
		Use:   "dates ID",
		Short: "Change a work item's start, due date or duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			change := service.DateChange{
				Start:    start,
				Due:      due,
				Duration: optionalInt(cmd.Flags(), "duration", duration),
				ClearDue: clearDue,
			}
			if change.Start == nil && change.Due == nil && change.Duration == nil && !change.ClearDue {
				return fmt.Errorf("nothing to change: pass --start, --due, --duration or --clear-due")
			}
			return runItemChange(cmd, app, args[0], func(id string) (*sched.ScheduleOutcome, error) {
				return app.WorkItems.UpdateDates(cmd.Context(), id, change)
			})
		},
	}

	cmd.Flags().Var(newDateValue(&start), "start", "New start date (YYYY-MM-DD)")
	cmd.Flags().Var(newDateValue(&due), "due", "New due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&duration, "duration", 0, "New duration in working days")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Derive the due date from start and duration")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")

	return cmd
}

func newItemModeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "mode ID manual|automatic",
		Short:     "Switch a work item between manual and automatic scheduling",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.ScheduleManual), string(domain.ScheduleAutomatic)},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(args[1])
			if err != nil {
				return err
			}
			return runItemChange(cmd, app, args[0], func(id string) (*sched.ScheduleOutcome, error) {
				return app.WorkItems.SetMode(cmd.Context(), id, mode)
			})
		},
	}
}

func newItemIgnoreNonWorkingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore-non-working-days ID on|off",
		Short: "Let a work item count every calendar day as working",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ignore, err := parseBoolArg(args[1])
			if err != nil {
				return err
			}
			return runItemChange(cmd, app, args[0], func(id string) (*sched.ScheduleOutcome, error) {
				return app.WorkItems.SetIgnoreNonWorkingDays(cmd.Context(), id, ignore)
			})
		},
	}
}

func newItemParentCmd(app *App) *cobra.Command {
	var none bool

	cmd := &cobra.Command{
		Use:   "parent ID [PARENT_ID]",
		Short: "Move a work item under a new parent",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if none == (len(args) == 2) {
				return fmt.Errorf("pass either a parent ID or --none")
			}
			var parentID *string
			if !none {
				id, err := resolveWorkItemID(ctx, app, args[1])
				if err != nil {
					return err
				}
				parentID = &id
			}
			return runItemChange(cmd, app, args[0], func(id string) (*sched.ScheduleOutcome, error) {
				return app.WorkItems.SetParent(ctx, id, parentID)
			})
		},
	}
	cmd.Flags().BoolVar(&none, "none", false, "Detach the work item from its parent")
	return cmd
}

func newItemDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a work item and its relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveWorkItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			w, err := app.WorkItems.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if !yes && app.interactive() {
				ok, err := confirm(cmd, app, fmt.Sprintf("Delete %q and its relations?", w.Subject))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Aborted."))
					return nil
				}
			}

			outcome, err := app.WorkItems.Delete(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted work item %s\n", formatter.Bold(w.Subject))
			fmt.Fprint(out, formatter.FormatOutcome(outcome))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newItemHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show scheduling history of a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveWorkItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			entries, err := app.WorkItems.History(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(entries))
			return nil
		},
	}
}

// runItemChange resolves the item, applies change and prints the item's new
// dates followed by whatever else the scheduling pass moved.
func runItemChange(cmd *cobra.Command, a *App, input string, change func(id string) (*sched.ScheduleOutcome, error)) error {
	ctx := cmd.Context()
	id, err := resolveWorkItemID(ctx, a, input)
	if err != nil {
		return err
	}
	outcome, err := change(id)
	if err != nil {
		return err
	}
	w, err := a.WorkItems.GetByID(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  %s\n", formatter.Bold(w.Subject),
		formatter.ModePill(w.ScheduleMode), formatter.FormatSpan(w.StartDate, w.DueDate))
	fmt.Fprint(out, formatter.FormatOutcome(outcome))
	return nil
}
