package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newWorkerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Apply queued calendar changes until interrupted",
		Long: `Apply queued calendar changes until interrupted.

Requires an event bus (CADENCE_NATS_URL). Calendar edits made by other
cadence processes are then propagated here one run at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.RunWorker == nil {
				return errors.New("worker needs an event bus: set CADENCE_NATS_URL")
			}
			return app.RunWorker(cmd.Context())
		},
	}
}
