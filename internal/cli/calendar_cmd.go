package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/spf13/cobra"
)

func newCalendarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Manage the working-day calendar",
	}

	cmd.AddCommand(
		newCalendarShowCmd(app),
		newCalendarWeekdaysCmd(app),
		newCalendarAddCmd(app),
		newCalendarRemoveCmd(app),
	)

	return cmd
}

func newCalendarShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show working weekdays and non-working dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := app.Calendar.Show(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCalendar(cal))
			return nil
		},
	}
}

func newCalendarWeekdaysCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "weekdays [DAY...]",
		Short: "Set the working weekdays, e.g. mon tue wed thu",
		Long: `Set the working weekdays, e.g. mon tue wed thu.

Without arguments the configured default working days are restored.
Work items whose dates cross a changed day are rescheduled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			days := app.DefaultWeekdays
			if len(args) > 0 {
				parsed, err := domain.ParseWeekdays(args)
				if err != nil {
					return err
				}
				days = parsed
			}
			if days.Empty() {
				return fmt.Errorf("at least one weekday must be working")
			}
			if err := app.Calendar.SetWorkingWeekdays(cmd.Context(), days); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Working weekdays: %s\n", formatter.Weekdays(days))
			return nil
		},
	}
}

func newCalendarAddCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "add DATE",
		Short: "Mark a date as non-working",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := domain.ParseDate(args[0])
			if err != nil {
				return err
			}
			if err := app.Calendar.AddNonWorkingDate(cmd.Context(), domain.NonWorkingDate{Date: date, Reason: reason}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added non-working date %s\n", formatDay(date))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the date is non-working, e.g. a holiday name")
	return cmd
}

func newCalendarRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove DATE",
		Short: "Make a non-working date working again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := domain.ParseDate(args[0])
			if err != nil {
				return err
			}
			if err := app.Calendar.RemoveNonWorkingDate(cmd.Context(), date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed non-working date %s\n", formatDay(date))
			return nil
		},
	}
}

func formatDay(t time.Time) string {
	return formatter.FormatDate(&t)
}
