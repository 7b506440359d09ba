package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval = 2 * time.Second

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4 << 10
)

// TokenSource yields the bearer token for a request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config is the configuration for a Client.
type Config struct {
	// Endpoint is the absolute URL of the jobs collection.
	Endpoint string

	Tokens TokenSource

	// HTTPClient defaults to an *http.Client with a 30 second timeout.
	HTTPClient *http.Client

	// PollInterval is the minimum spacing between status requests made by
	// Await.
	PollInterval time.Duration

	Logger *zap.Logger
}

// Client submits and tracks jobs.
type Client struct {
	endpoint     string
	tokens       TokenSource
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewClient creates a jobs Client.
func NewClient(c Config) (*Client, error) {
	if c.Endpoint == "" {
		return nil, errors.New("jobs client requires an endpoint")
	}
	if c.Tokens == nil {
		return nil, errors.New("jobs client requires a token source")
	}

	client := &Client{
		endpoint:     strings.TrimRight(c.Endpoint, "/"),
		tokens:       c.Tokens,
		httpClient:   c.HTTPClient,
		pollInterval: c.PollInterval,
		logger:       c.Logger,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if client.pollInterval <= 0 {
		client.pollInterval = defaultPollInterval
	}
	if client.logger == nil {
		client.logger = zap.NewNop()
	}

	return client, nil
}

type submitRequest struct {
	Kind  string          `json:"kind"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Submit creates a job of the given kind.
func (c *Client) Submit(ctx context.Context, kind string, input json.RawMessage) (*Job, error) {
	body, err := json.Marshal(submitRequest{Kind: kind, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling job: %w", err)
	}

	var job Job
	if err := c.do(ctx, "submit job", http.MethodPost, c.endpoint, body, &job); err != nil {
		return nil, err
	}

	c.logger.Debug("job submitted",
		zap.String("job_id", job.ID),
		zap.String("kind", kind),
		zap.String("status", string(job.Status)),
	)

	return &job, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.do(ctx, "get job "+id, http.MethodGet, c.endpoint+"/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Result fetches the result document of a succeeded job.
func (c *Client) Result(ctx context.Context, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "get job result "+id, http.MethodGet, c.endpoint+"/"+url.PathEscape(id)+"/result", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Await polls the job until it reaches a terminal status and returns its
// result. Polls are spaced at least PollInterval apart. A failed job yields
// a *FailedError and a cancelled one ErrJobCancelled.
func (c *Client) Await(ctx context.Context, id string) (json.RawMessage, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)

	var last Status
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for job %s: %w", id, err)
		}

		job, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}

		if job.Status != last {
			c.logger.Debug("job status",
				zap.String("job_id", id),
				zap.String("status", string(job.Status)),
			)
			last = job.Status
		}

		switch job.Status {
		case StatusSucceeded:
			return c.Result(ctx, id)
		case StatusFailed:
			return nil, &FailedError{ID: id, Message: job.Error}
		case StatusCancelled:
			return nil, fmt.Errorf("job %s: %w", id, ErrJobCancelled)
		}
	}
}

func (c *Client) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}

	return nil
}
