package cli

import (
	"context"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Schedule  service.ScheduleService
	WorkItems service.WorkItemService
	Relations service.RelationService
	Calendar  service.CalendarService
	Import    service.ImportService

	// RunWorker consumes queued calendar changes until ctx is done. Nil when
	// no event bus is configured.
	RunWorker func(ctx context.Context) error

	// DefaultWeekdays is applied by "calendar weekdays" without arguments.
	DefaultWeekdays domain.WeekdaySet
	// User is the default acting user for journal entries.
	User string
	// IsInteractive reports whether stdin is a terminal. Nil means no.
	IsInteractive func() bool
	// AccessiblePrompts runs confirmations as plain line prompts instead of
	// the full-screen form.
	AccessiblePrompts bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "cadence" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var user string

	root := &cobra.Command{
		Use:           "cadence",
		Short:         "Automatic work item scheduling on a working-day calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(service.WithActingUser(cmd.Context(), user))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&user, "user", app.User, "User scheduling changes are attributed to")

	root.AddCommand(
		newItemCmd(app),
		newRelCmd(app),
		newScheduleCmd(app),
		newCalendarCmd(app),
		newImportCmd(app),
		newWorkerCmd(app),
	)

	return root
}
