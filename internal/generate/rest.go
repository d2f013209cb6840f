package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/datawizard/pkg/utils"
	"go.uber.org/zap"
)

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text *string `json:"text,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// RESTClient calls the generateContent endpoint over plain HTTPS with a JSON body.
type RESTClient struct {
	url    string
	model  string
	apiKey string
	http   *http.Client
	logger *zap.Logger
}

// NewRESTClient returns a client posting to {endpoint}/models/{model}:generateContent.
// A zero timeout keeps the transport default.
func NewRESTClient(endpoint, model, apiKey string, timeout time.Duration, opts ...Option) (*RESTClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if endpoint == "" || model == "" {
		return nil, fmt.Errorf("generation endpoint and model are required")
	}
	o := buildOptions(opts)
	hc := &http.Client{Timeout: timeout}
	return &RESTClient{
		url:    strings.TrimRight(endpoint, "/") + "/models/" + model + ":generateContent",
		model:  model,
		apiKey: apiKey,
		http:   hc,
		logger: o.logger,
	}, nil
}

// Generate sends prompt and returns candidates[0].content.parts[0].text.
func (c *RESTClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: &prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("requesting generation",
		zap.String("model", c.model),
		zap.Int("prompt_chars", len(prompt)),
		zap.String("prompt", utils.Truncate(prompt, 200)))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var parsed generateResponse
	decodeErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := utils.Truncate(strings.TrimSpace(string(data)), 300)
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("generation service returned %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Content == nil ||
		len(parsed.Candidates[0].Content.Parts) == 0 || parsed.Candidates[0].Content.Parts[0].Text == nil {
		return "", ErrNoCandidates
	}
	text := *parsed.Candidates[0].Content.Parts[0].Text

	c.logger.Debug("generation finished",
		zap.Int("reply_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}

// Close is a no-op; the HTTP client holds no per-client resources.
func (c *RESTClient) Close() error {
	return nil
}
