package credentials

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/papercomputeco/jobpilot/pkg/cache"
)

// EnvVar is the environment variable read by EnvToken.
const EnvVar = "JOBPILOT_TOKEN"

// ErrNoToken is returned by a token source that has no token.
var ErrNoToken = errors.New("no token configured")

// TokenSource yields the bearer token for a request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// EnvToken reads the token from an environment variable, EnvVar when Var is
// empty.
type EnvToken struct {
	Var string
}

func (e EnvToken) Token(context.Context) (string, error) {
	name := e.Var
	if name == "" {
		name = EnvVar
	}

	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// FileTokenSource reads the token stored in credentials.toml and keeps it for
// maxAge before reading the file again.
type FileTokenSource struct {
	manager *Manager
	cached  *cache.Value[string]
}

// NewFileTokenSource returns a FileTokenSource over m.
func NewFileTokenSource(m *Manager, maxAge time.Duration, opts ...cache.Option[string]) *FileTokenSource {
	return &FileTokenSource{
		manager: m,
		cached:  cache.New(maxAge, opts...),
	}
}

func (f *FileTokenSource) Token(context.Context) (string, error) {
	if token, fresh := f.cached.Get(); fresh {
		return token, nil
	}

	token, err := f.manager.GetToken()
	if err != nil {
		return "", err
	}
	if token == "" {
		f.cached.Invalidate()
		return "", ErrNoToken
	}

	f.cached.Set(token)
	return token, nil
}

// Invalidate forces the next Token call to read the file.
func (f *FileTokenSource) Invalidate() {
	f.cached.Invalidate()
}

// Chain tries each source in order and returns the first token found.
type Chain []TokenSource

func (c Chain) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		token, err := src.Token(ctx)
		if errors.Is(err, ErrNoToken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return token, nil
	}
	return "", ErrNoToken
}

// NewDefaultTokenSource returns the token lookup used by jobpilot commands:
// the JOBPILOT_TOKEN environment variable, then credentials.toml in the
// resolved dot dir, cached for maxAge.
func NewDefaultTokenSource(override string, maxAge time.Duration) (Chain, error) {
	m, err := NewManager(override)
	if err != nil {
		return nil, err
	}
	return Chain{EnvToken{}, NewFileTokenSource(m, maxAge)}, nil
}
