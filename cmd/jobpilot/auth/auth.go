// Package authcmder provides the auth command for storing the assistant API
// token.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
	"github.com/papercomputeco/jobpilot/pkg/credentials"
	"github.com/papercomputeco/jobpilot/pkg/utils"
)

const authLongDesc string = `Store the assistant API token.

The token is stored in credentials.toml in the .jobpilot/ directory with
owner-only permissions and sent as a bearer token with every request.
The JOBPILOT_TOKEN environment variable takes precedence when set.

Examples:
  jobpilot auth                 Prompt for the token
  echo $TOKEN | jobpilot auth   Pipe the token from stdin
  jobpilot auth --status        Show whether a token is stored
  jobpilot auth --remove        Remove the stored token`

const authShortDesc string = "Store the assistant API token"

func NewAuthCmd() *cobra.Command {
	var statusFlag bool
	var removeFlag bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case statusFlag:
				return runStatus(cmd.OutOrStdout(), configDir)
			case removeFlag:
				return runRemove(cmd.OutOrStdout(), configDir)
			default:
				return runAuth(cmd.InOrStdin(), cmd.OutOrStdout(), configDir)
			}
		},
	}

	cmd.Flags().BoolVar(&statusFlag, "status", false, "Show whether a token is stored")
	cmd.Flags().BoolVar(&removeFlag, "remove", false, "Remove the stored token")

	return cmd
}

func runAuth(in io.Reader, out io.Writer, configDir string) error {
	token, err := readToken(in, out)
	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetToken(token); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored assistant token %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render("("+mgr.GetTarget()+")"),
	)
	return nil
}

func runStatus(out io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	token, err := mgr.GetToken()
	if err != nil {
		return err
	}

	if os.Getenv(credentials.EnvVar) != "" {
		fmt.Fprintf(out, "\n  %s Using %s from the environment\n",
			cliui.WarnStyle.Render("!"),
			cliui.NameStyle.Render(credentials.EnvVar),
		)
	}

	if token == "" {
		fmt.Fprintf(out, "\n  %s No stored token.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'jobpilot auth' to store one.\n\n")
		return nil
	}

	fmt.Fprintf(out, "\n  %s Token stored %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(utils.Truncate(token, 4)),
	)
	return nil
}

func runRemove(out io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveToken(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed the stored token.\n\n", cliui.SuccessMark)
	return nil
}

// readToken reads the token from in. A terminal is prompted with hidden
// input; anything else is read up to the first newline.
func readToken(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Enter assistant API token: ")

		tokenBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return string(tokenBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
