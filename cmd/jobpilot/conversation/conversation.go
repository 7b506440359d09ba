// Package conversationcmder provides the conversation command for inspecting
// and resetting the persisted assistant conversation.
package conversationcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
	"github.com/papercomputeco/jobpilot/pkg/dotdir"
)

const conversationLongDesc string = `Inspect or reset the current assistant conversation.

The assistant announces a conversation id at the start of the first chat.
It is stored in conversation.json in the .jobpilot/ directory and sent with
every later message so the assistant keeps its context.

Examples:
  jobpilot conversation show    Show the stored conversation id
  jobpilot conversation clear   Forget it; the next chat starts fresh`

const conversationShortDesc string = "Inspect or reset the current conversation"

func NewConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversation",
		Short: conversationShortDesc,
		Long:  conversationLongDesc,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored conversation id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runShow(cmd.OutOrStdout(), configDir)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the stored conversation id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runClear(cmd.OutOrStdout(), configDir)
		},
	})

	return cmd
}

func runShow(out io.Writer, configDir string) error {
	state, err := dotdir.NewManager().LoadConversationState(configDir)
	if err != nil {
		return fmt.Errorf("loading conversation: %w", err)
	}

	if state == nil {
		fmt.Fprintf(out, "\n  %s No conversation yet. The next chat starts one.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(out, "\n  %s  %s\n", cliui.KeyStyle.Render("Conversation:"), cliui.NameStyle.Render(state.ConversationID))
	if !state.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render("Stored:      "), cliui.DimStyle.Render(state.UpdatedAt.Local().Format("2006-01-02 15:04:05")))
	}
	fmt.Fprintln(out)
	return nil
}

func runClear(out io.Writer, configDir string) error {
	if err := dotdir.NewManager().ClearConversation(configDir); err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}

	fmt.Fprintf(out, "\n  %s Conversation cleared. Next chat will start a new conversation.\n\n", cliui.SuccessMark)
	return nil
}
