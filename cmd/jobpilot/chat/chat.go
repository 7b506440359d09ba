// Package chatcmder provides the chat command for streamed conversations
// with the job-search assistant.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/cliui"
	"github.com/papercomputeco/jobpilot/pkg/config"
	"github.com/papercomputeco/jobpilot/pkg/credentials"
	"github.com/papercomputeco/jobpilot/pkg/dotdir"
	"github.com/papercomputeco/jobpilot/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/jobpilot/pkg/eventstream/utils"
	"github.com/papercomputeco/jobpilot/pkg/logger"
	"github.com/papercomputeco/jobpilot/pkg/session"
	"github.com/papercomputeco/jobpilot/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

// tokenMaxAge is how long a token read from credentials.toml is reused.
const tokenMaxAge = time.Minute

type chatCommander struct {
	configDir string
	debug     bool
	message   string
	record    string
	markdown  bool

	apiTarget string
	chatPath  string
	timeout   string

	eventstreamProvider string
	eventstreamBrokers  string
	eventstreamTopic    string

	out    io.Writer
	in     io.Reader
	logger *zap.Logger
}

var chatFlags = []string{
	config.FlagAPITarget,
	config.FlagChatPath,
	config.FlagTimeout,
	config.FlagEventstreamProvider,
	config.FlagEventstreamBrokers,
	config.FlagEventstreamTopic,
}

const chatLongDesc string = `Chat with the job-search assistant.

Every message is sent to the assistant's streaming chat endpoint and the
reply is printed as it arrives. Tool results (job searches, application
tracking, applications and saved jobs) are summarized inline.

The conversation id announced by the assistant is kept in the .jobpilot/
directory so the next "jobpilot chat" continues the same conversation.
Type /new to start a new conversation, /exit or Ctrl+D to quit.
Ctrl+C while a reply is streaming stops that reply.

Examples:
  jobpilot chat
  jobpilot chat -m "find remote Go roles in Berlin"
  jobpilot chat --record session.sse
  jobpilot chat --api-target http://localhost:8090`

const chatShortDesc string = "Chat with the job-search assistant"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlags)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.chatPath = v.GetString("client.chat_path")
			cmder.timeout = v.GetString("client.timeout")
			cmder.eventstreamProvider = v.GetString("eventstream.provider")
			cmder.eventstreamBrokers = v.GetString("eventstream.brokers")
			cmder.eventstreamTopic = v.GetString("eventstream.topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.out = cmd.OutOrStdout()
			cmder.in = cmd.InOrStdin()
			return cmder.run(cmd.Context())
		},
	}

	for _, key := range chatFlags {
		config.AddStringFlag(cmd, config.Flags, key, new(string))
	}
	cmd.Flags().StringVarP(&cmder.message, "message", "m", "", "Send a single message and exit")
	cmd.Flags().StringVar(&cmder.record, "record", "", "Append the raw response stream to this file")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render each reply as markdown once it is complete")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctrl, cleanup, err := c.newController()
	if err != nil {
		return err
	}
	defer cleanup()

	if c.message != "" {
		return c.exchange(ctx, ctrl, c.message)
	}

	return c.repl(ctx, ctrl)
}

func (c *chatCommander) newController() (*session.Controller, func(), error) {
	endpoint, err := config.JoinURL(c.apiTarget, c.chatPath)
	if err != nil {
		return nil, nil, err
	}

	timeout, err := time.ParseDuration(c.timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timeout %q: %w", c.timeout, err)
	}

	tokens, err := credentials.NewDefaultTokenSource(c.configDir, tokenMaxAge)
	if err != nil {
		return nil, nil, fmt.Errorf("loading credentials: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.eventstreamProvider,
		Brokers:      config.EventstreamConfig{Brokers: c.eventstreamBrokers}.BrokerList(),
		Topic:        c.eventstreamTopic,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, nil, err
	}

	var tee *os.File
	if c.record != "" {
		tee, err = os.OpenFile(c.record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			_ = publisher.Close()
			return nil, nil, fmt.Errorf("opening record file: %w", err)
		}
	}

	cfg := &session.Config{
		Endpoint:      endpoint,
		Client:        &http.Client{Timeout: timeout},
		Tokens:        tokens,
		Conversations: dotdir.NewConversationStore(dotdir.NewManager(), c.configDir),
		Callbacks:     c.callbacks(),
		Publisher:     publisher,
		Logger:        c.logger,
	}
	if tee != nil {
		cfg.Tee = tee
	}

	ctrl, err := session.NewController(cfg)
	if err != nil {
		_ = publisher.Close()
		if tee != nil {
			_ = tee.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		ctrl.Cancel()
		ctrl.Wait()
		closePublisher(publisher, c.logger)
		if tee != nil {
			if err := tee.Close(); err != nil {
				c.logger.Warn("closing record file", zap.Error(err))
			}
		}
	}

	return ctrl, cleanup, nil
}

func closePublisher(p eventstream.Publisher, l *zap.Logger) {
	if err := p.Close(); err != nil {
		l.Warn("closing session event publisher", zap.Error(err))
	}
}

func (c *chatCommander) callbacks() session.Callbacks {
	return session.Callbacks{
		OnTextChunk: func(content string) {
			if !c.markdown {
				fmt.Fprint(c.out, content)
			}
		},
		OnToolExecuted: func(name string, result map[string]any) {
			fmt.Fprintln(c.out)
			cliui.RenderToolResult(c.out, name, result)
		},
		OnError: func(err error) {
			fmt.Fprintf(c.out, "\n  %s %s\n", cliui.FailMark, describeError(err))
		},
		OnComplete: func(text string) {
			if !c.markdown {
				fmt.Fprintln(c.out)
				return
			}
			rendered, err := cliui.RenderMarkdown(text, 0)
			if err != nil {
				c.logger.Debug("rendering markdown", zap.Error(err))
			}
			fmt.Fprint(c.out, rendered)
		},
	}
}

// exchange sends one message and blocks until its session ends. Ctrl+C
// cancels the session instead of exiting.
func (c *chatCommander) exchange(ctx context.Context, ctrl *session.Controller, message string) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	done := make(chan struct{})
	go func() {
		select {
		case <-interrupts:
			ctrl.Cancel()
		case <-done:
		}
	}()

	fmt.Fprint(c.out, assistantPrompt)
	ctrl.Send(ctx, message)
	ctrl.Wait()
	close(done)

	switch ctrl.State() {
	case session.StateCancelled:
		fmt.Fprintf(c.out, "\n  %s\n", cliui.DimStyle.Render("(stopped)"))
	case session.StateFailed:
		return errors.New("assistant request failed")
	}
	return nil
}

func (c *chatCommander) repl(ctx context.Context, ctrl *session.Controller) error {
	fmt.Fprintln(c.out)
	if id := c.storedConversation(); id != "" {
		fmt.Fprintf(c.out, "  %s Continuing conversation %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(utils.Truncate(id, 16)),
		)
	} else {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new starts over, /exit or Ctrl+D quits."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			if err := ctrl.ResetConversation(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "  %s New conversation\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		// A failed exchange is already reported through OnError; the REPL
		// keeps going.
		_ = c.exchange(ctx, ctrl, input)
		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) storedConversation() string {
	id, err := dotdir.NewManager().LoadConversationID(c.configDir)
	if err != nil {
		c.logger.Debug("loading conversation id", zap.Error(err))
		return ""
	}
	return id
}

// describeError turns session errors into the line shown to the user.
func describeError(err error) string {
	var statusErr *session.StatusError
	switch {
	case errors.Is(err, session.ErrMissingCredential):
		return "Not signed in. Run 'jobpilot auth' or set " + credentials.EnvVar + "."
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized:
		return "The assistant rejected the token. Run 'jobpilot auth' again."
	default:
		return err.Error()
	}
}
