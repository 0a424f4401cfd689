package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import work items, relations and calendar from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Import == nil {
				return errors.New("import is not available")
			}
			result, err := app.Import.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d work items, %d relations, %d non-working dates\n",
				result.WorkItemCount, result.RelationCount, result.NonWorkingDateCount)
			fmt.Fprint(out, formatter.FormatOutcome(result.Outcome))
			return nil
		},
	}
}
