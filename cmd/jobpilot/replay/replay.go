// Package replaycmder provides the replay command, a local stand-in for the
// assistant's streaming chat endpoint.
package replaycmder

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/config"
	"github.com/papercomputeco/jobpilot/pkg/logger"
	"github.com/papercomputeco/jobpilot/pkg/replay"
)

type replayCommander struct {
	configDir string
	debug     bool
	json      bool

	listen   string
	chatPath string
	delayMs  uint
	token    string

	logger *zap.Logger
}

var replayFlags = []string{
	config.FlagReplayListen,
	config.FlagReplayDelay,
	config.FlagChatPath,
}

const replayLongDesc string = `Serve a recorded assistant stream.

The transcript is a raw server-sent event stream, such as one written by
"jobpilot chat --record". Every chat request is answered with the whole
transcript, one event at a time. Point the chat command at the replay
server to reproduce a session without the real assistant.

Examples:
  jobpilot replay session.sse
  jobpilot replay session.sse --listen :9000 --delay-ms 150
  jobpilot chat --api-target http://localhost:8090`

const replayShortDesc string = "Serve a recorded assistant stream"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay <transcript>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, replayFlags)

			cmder.listen = v.GetString("replay.listen")
			cmder.delayMs = v.GetUint("replay.delay_ms")
			cmder.chatPath = v.GetString("client.chat_path")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagReplayListen, new(string))
	config.AddUintFlag(cmd, config.Flags, config.FlagReplayDelay, new(uint))
	config.AddStringFlag(cmd, config.Flags, config.FlagChatPath, new(string))
	cmd.Flags().StringVar(&cmder.token, "require-token", "", "Reject chat requests without this bearer token")
	cmd.Flags().BoolVar(&cmder.json, "json-logs", false, "Write logs as JSON")

	return cmd
}

func (c *replayCommander) run(ctx context.Context, path string) error {
	if c.json {
		c.logger = logger.NewJSONLogger(c.debug, os.Stderr)
	} else {
		c.logger = logger.NewLogger(c.debug)
	}
	defer func() { _ = c.logger.Sync() }()

	transcript, err := replay.LoadTranscript(path)
	if err != nil {
		return err
	}

	server, err := replay.NewServer(replay.Config{
		ChatPath:   c.chatPath,
		Transcript: transcript,
		Delay:      time.Duration(c.delayMs) * time.Millisecond,
		Token:      c.token,
	}, c.logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	c.logger.Info("replaying transcript",
		zap.String("transcript", path),
		zap.String("listen", ln.Addr().String()),
		zap.String("chat_path", c.chatPath),
		zap.Int("chunks", len(transcript.Chunks())),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.logger.Info("shutting down replay server")
	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutting down replay server: %w", err)
	}
	return <-errCh
}
