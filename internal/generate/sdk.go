package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/hyperjump/datawizard/pkg/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// SDKClient calls the generation service through the genai client library.
type SDKClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewSDKClient creates a genai-backed client for model.
func NewSDKClient(ctx context.Context, model, apiKey string, opts ...Option) (*SDKClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		return nil, fmt.Errorf("generation model is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	o := buildOptions(opts)
	return &SDKClient{client: client, model: model, logger: o.logger}, nil
}

// Generate returns the concatenated text parts of the first candidate.
func (c *SDKClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("requesting generation",
		zap.String("model", c.model),
		zap.String("prompt", utils.Truncate(prompt, 200)))

	start := time.Now()
	resp, err := c.client.GenerativeModel(c.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := textFromResponse(resp)
	if err != nil {
		return "", err
	}
	c.logger.Debug("generation finished",
		zap.Int("reply_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}

// Close releases the underlying connection.
func (c *SDKClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", ErrNoCandidates
	}
	var parts []string
	for _, p := range candidate.Content.Parts {
		if text, ok := p.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no text parts", ErrNoCandidates)
	}
	return strings.Join(parts, ""), nil
}
