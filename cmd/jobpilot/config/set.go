package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
	"github.com/papercomputeco/jobpilot/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Writes the key to config.toml in the .jobpilot/ directory, creating the
file when needed. Durations accept Go duration syntax (90s, 2m) and
eventstream.brokers takes a comma-separated list.

Examples:
  jobpilot config set client.api_target https://assistant.example.com
  jobpilot config set eventstream.provider kafka
  jobpilot config set eventstream.brokers kafka-1:9092,kafka-2:9092
  jobpilot config set replay.delay_ms 50`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}
}

func runSet(w io.Writer, key, value, configDir string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
