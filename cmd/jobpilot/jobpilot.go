// Package jobpilotcmder is the root of the jobpilot command tree.
package jobpilotcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/auth"
	chatcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/chat"
	configcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/config"
	conversationcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/conversation"
	jobscmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/jobs"
	replaycmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/replay"
	versioncmder "github.com/papercomputeco/jobpilot/cmd/jobpilot/version"
)

const jobpilotLongDesc string = `jobpilot is the command-line client of the job-search assistant.

Talk to the assistant, track long-running jobs and replay recorded streams:
  jobpilot auth                  Store the assistant API token
  jobpilot chat                  Chat with the assistant
  jobpilot conversation show     Show the current conversation
  jobpilot jobs run <kind>       Submit a job and wait for its result
  jobpilot replay <transcript>   Serve a recorded stream locally`

const jobpilotShortDesc string = "jobpilot - job-search assistant client"

func NewJobpilotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "jobpilot",
		Short:         jobpilotShortDesc,
		Long:          jobpilotLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .jobpilot/ config directory")

	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(conversationcmder.NewConversationCmd())
	cmd.AddCommand(jobscmder.NewJobsCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
