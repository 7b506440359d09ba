// Package configcmder provides the config command for managing persistent
// jobpilot configuration stored in the .jobpilot/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
	"github.com/papercomputeco/jobpilot/pkg/config"
)

const configLongDesc string = `Manage persistent jobpilot configuration.

Configuration is stored as config.toml in the .jobpilot/ directory and
provides default values for command flags. CLI flags and JOBPILOT_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_target, client.chat_path, client.jobs_path, client.timeout,
  jobs.poll_interval,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  replay.listen, replay.delay_ms

Examples:
  jobpilot config set client.api_target https://assistant.example.com
  jobpilot config set client.timeout 2m
  jobpilot config get client.api_target
  jobpilot config list`

const configShortDesc string = "Manage persistent jobpilot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// completeKeys offers config keys for the first positional argument.
func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
