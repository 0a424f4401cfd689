package cli

import (
	"fmt"

	sched "github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "schedule ID...",
		Short: "Preview the dates a scheduling pass from these items would derive",
		Long: `Preview the dates a scheduling pass from these items would derive.

Nothing is saved unless --apply is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids, err := resolveWorkItemIDs(ctx, app, args)
			if err != nil {
				return err
			}
			cause := domain.CausedBy{Type: domain.CauseWorkItemChanged, UserID: service.ActingUser(ctx)}
			if len(ids) == 1 {
				cause.WorkItemID = ids[0]
			}
			req := sched.NewScheduleRequest(cause, ids...)

			out := cmd.OutOrStdout()
			var resp *sched.ScheduleResponse
			if apply {
				outcome, err := app.Schedule.Reschedule(ctx, req)
				if err != nil {
					return err
				}
				resp = outcome.Schedule
				fmt.Fprint(out, formatter.FormatOutcome(outcome))
			} else {
				resp, err = app.Schedule.Schedule(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatScheduleResponse(resp))
			}

			if len(resp.Changes) == 0 && len(resp.Failures) == 0 {
				fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("No changes (%d automatic items checked).", resp.VisitedCount)))
			}
			if !resp.Success {
				return fmt.Errorf("scheduling failed: %w", domain.ErrCyclicDependency)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Save the derived dates")
	return cmd
}
