package jobscmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
)

const runLongDesc string = `Submit a job and wait for its result.

The input is a JSON document passed inline or read from a file with the
@path form. The job is polled at the configured interval until it
succeeds, fails or is cancelled. With --detach the job id is printed
right after submission.`

const runShortDesc string = "Submit a job and wait for its result"

func newRunCmd() *cobra.Command {
	cmder := &jobsCommander{}
	var input string
	var detach bool

	cmd := &cobra.Command{
		Use:   "run <kind>",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.start()
			defer cmder.stop()

			raw, err := readInput(input)
			if err != nil {
				return err
			}

			client, err := cmder.newClient()
			if err != nil {
				return err
			}

			ctx := contextOf(cmd)
			out := cmd.OutOrStdout()

			job, err := client.Submit(ctx, args[0], raw)
			if err != nil {
				return describeError(err)
			}

			if detach {
				fmt.Fprintln(out, job.ID)
				return nil
			}

			var result json.RawMessage
			msg := fmt.Sprintf("Waiting for %s job %s", args[0], cliui.NameStyle.Render(job.ID))
			err = cliui.Step(cmd.ErrOrStderr(), msg, func() error {
				var awaitErr error
				result, awaitErr = client.Await(ctx, job.ID)
				return awaitErr
			})
			if err != nil {
				return describeError(err)
			}

			writeJSON(out, result)
			return nil
		},
	}

	cmder.bind(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "Job input as JSON, or @path to read it from a file")
	cmd.Flags().BoolVar(&detach, "detach", false, "Print the job id without waiting for the result")

	return cmd
}

// readInput resolves the --input value. An empty value sends no input.
func readInput(input string) (json.RawMessage, error) {
	if input == "" {
		return nil, nil
	}

	data := []byte(input)
	if path, ok := strings.CutPrefix(input, "@"); ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading job input: %w", err)
		}
	}

	if !json.Valid(data) {
		return nil, errors.New("job input is not valid JSON")
	}
	return json.RawMessage(data), nil
}
