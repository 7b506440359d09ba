package jobscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
	"github.com/papercomputeco/jobpilot/pkg/jobs"
)

const statusShortDesc string = "Show the state of a job"

func newStatusCmd() *cobra.Command {
	cmder := &jobsCommander{}

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: statusShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.start()
			defer cmder.stop()

			client, err := cmder.newClient()
			if err != nil {
				return err
			}

			job, err := client.Status(contextOf(cmd), args[0])
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("Job:    "), cliui.NameStyle.Render(job.ID))
			fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Kind:   "), cliui.ValueStyle.Render(job.Kind))
			fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Status: "), statusText(job.Status))
			if job.Error != "" {
				fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Error:  "), job.Error)
			}
			if !job.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Updated:"), cliui.DimStyle.Render(job.UpdatedAt.Local().Format("2006-01-02 15:04:05")))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmder.bind(cmd)
	return cmd
}

func statusText(s jobs.Status) string {
	switch s {
	case jobs.StatusSucceeded:
		return cliui.SuccessMark + " " + string(s)
	case jobs.StatusFailed, jobs.StatusCancelled:
		return cliui.FailMark + " " + string(s)
	default:
		return cliui.WarnStyle.Render(string(s))
	}
}
