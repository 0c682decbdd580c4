package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export users|tasks",
		Short: "Write an admin CSV report",
		Long: `Write one of the admin reports as CSV:

  users  per-user task counts (UserTasksSummary.csv)
  tasks  every task with its owner (AllTasksWithOwners.csv)`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"users", "tasks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var write func(context.Context, io.Writer) (int, error)
			switch args[0] {
			case "users":
				write = a.Admin.WriteUserTasksSummaryCSV
			default:
				write = a.Admin.WriteTasksWithOwnersCSV
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			lines, err := write(cmd.Context(), w)
			if err != nil {
				return err
			}

			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d lines to %s\n", lines, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
