// Package generate sends prompts to the text-generation service.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/datawizard/internal/config"
	"github.com/hyperjump/datawizard/internal/models"
	"go.uber.org/zap"
)

// SentinelReply replaces the reply whenever generation fails for any reason.
const SentinelReply = "Terjadi kesalahan saat menghubungi Gemini API."

// Backends accepted by New.
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

var (
	// ErrNoCandidates means the service answered without a usable text part.
	ErrNoCandidates = errors.New("no candidates in response")
	// ErrMissingAPIKey means no credential was configured.
	ErrMissingAPIKey = errors.New("generation API key is not set")
)

// Generator produces a free-text reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Reply is the outcome of one generation request.
type Reply struct {
	Text    string
	Outcome models.Outcome
}

// IsSentinel reports whether the reply is the failure sentinel.
func (r Reply) IsSentinel() bool {
	return r.Text == SentinelReply
}

// Ask calls g and converts any failure into the sentinel reply with a degraded outcome.
// A nil g is treated as a failure.
func Ask(ctx context.Context, g Generator, prompt string) Reply {
	if g == nil {
		return Failed(errors.New("no generator configured"))
	}
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		return Failed(err)
	}
	return Reply{Text: text, Outcome: models.OK(models.StageGenerate)}
}

// Failed returns the sentinel reply for err.
func Failed(err error) Reply {
	return Reply{Text: SentinelReply, Outcome: models.Degraded(models.StageGenerate, err.Error())}
}

type options struct {
	logger *zap.Logger
}

// Option configures a client.
type Option func(*options)

// WithLogger sets a logger for debug output. Prompts are logged truncated; the key never is.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// New returns the Generator selected by cfg.Backend.
func New(ctx context.Context, cfg config.GenerationConfig, opts ...Option) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch strings.ToLower(cfg.Backend) {
	case "", BackendREST:
		c, err := NewRESTClient(cfg.Endpoint, cfg.Model, cfg.APIKey, cfg.Timeout, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendSDK:
		c, err := NewSDKClient(ctx, cfg.Model, cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.Backend)
	}
}
