// Package jobscmder provides the jobs command for long-running assistant
// jobs such as bulk applications and resume parsing.
package jobscmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/jobpilot/pkg/config"
	"github.com/papercomputeco/jobpilot/pkg/credentials"
	"github.com/papercomputeco/jobpilot/pkg/jobs"
	"github.com/papercomputeco/jobpilot/pkg/logger"
)

// tokenMaxAge is how long a token read from credentials.toml is reused.
const tokenMaxAge = time.Minute

type jobsCommander struct {
	configDir string
	debug     bool

	apiTarget    string
	jobsPath     string
	timeout      string
	pollInterval string

	logger *zap.Logger
}

var jobsFlags = []string{
	config.FlagAPITarget,
	config.FlagJobsPath,
	config.FlagTimeout,
	config.FlagPollInterval,
}

const jobsLongDesc string = `Run and inspect long-running assistant jobs.

Some assistant work, such as applying to a batch of saved jobs, runs as a
background job. "jobs run" submits a job and polls until it finishes,
printing the result document. "jobs status" shows the state of a job.

Examples:
  jobpilot jobs run bulk_apply --input '{"jobIds":["j1","j2"]}'
  jobpilot jobs run parse_resume --input @resume.json
  jobpilot jobs status 6f1c2a`

const jobsShortDesc string = "Run and inspect long-running assistant jobs"

func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: jobsShortDesc,
		Long:  jobsLongDesc,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// bind registers the shared flags on cmd and loads them through viper
// before cmd runs.
func (c *jobsCommander) bind(cmd *cobra.Command) {
	for _, key := range jobsFlags {
		config.AddStringFlag(cmd, config.Flags, key, new(string))
	}

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		c.configDir, _ = cmd.Flags().GetString("config-dir")
		c.debug, _ = cmd.Flags().GetBool("debug")

		v, err := config.InitViper(c.configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		config.BindRegisteredFlags(v, cmd, config.Flags, jobsFlags)

		c.apiTarget = v.GetString("client.api_target")
		c.jobsPath = v.GetString("client.jobs_path")
		c.timeout = v.GetString("client.timeout")
		c.pollInterval = v.GetString("jobs.poll_interval")
		return nil
	}
}

func (c *jobsCommander) newClient() (*jobs.Client, error) {
	endpoint, err := config.JoinURL(c.apiTarget, c.jobsPath)
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(c.timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", c.timeout, err)
	}

	interval, err := time.ParseDuration(c.pollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval %q: %w", c.pollInterval, err)
	}

	tokens, err := credentials.NewDefaultTokenSource(c.configDir, tokenMaxAge)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	return jobs.NewClient(jobs.Config{
		Endpoint:     endpoint,
		Tokens:       tokens,
		HTTPClient:   &http.Client{Timeout: timeout},
		PollInterval: interval,
		Logger:       c.logger,
	})
}

func (c *jobsCommander) start() {
	c.logger = logger.NewLogger(c.debug)
}

func (c *jobsCommander) stop() {
	_ = c.logger.Sync()
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// writeJSON pretty-prints raw to w, falling back to the raw bytes.
func writeJSON(w io.Writer, raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Fprintln(w, string(raw))
		return
	}
	fmt.Fprintln(w, buf.String())
}

func describeError(err error) error {
	var failed *jobs.FailedError
	var status *jobs.StatusError
	switch {
	case errors.Is(err, credentials.ErrNoToken):
		return fmt.Errorf("not signed in: run 'jobpilot auth' or set %s", credentials.EnvVar)
	case errors.As(err, &status) && status.Code == http.StatusUnauthorized:
		return errors.New("the assistant rejected the token: run 'jobpilot auth' again")
	case errors.As(err, &failed):
		return fmt.Errorf("job %s failed: %s", failed.ID, failed.Message)
	default:
		return err
	}
}
