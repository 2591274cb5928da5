// Package genai provides optional AI-assisted phrasing for insight messages
// using the OpenAI API.
//
// The engine is fully functional without it: when no client is configured, or
// a request fails, callers fall back to the statically generated insight text.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You are a gentle meditation coach. Rewrite each of the " +
	"following wellness observations in a warm, encouraging voice. Return one " +
	"rewritten line per input line, in the same order, with no numbering and " +
	"no extra commentary."

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  string
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion API for insight phrasing.
type Client struct {
	oai   openai.Client
	model string
}

// NewClient initializes a GenAI client, falling back to the OPENAI_API_KEY
// environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	slog.Debug("Creating GenAI client", "model", cfg.Model)
	return &Client{
		oai:   openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model: cfg.Model,
	}, nil
}

// RephraseInsights rewrites the insight list in a warmer voice. The returned
// slice has the same length and order as the input; on any mismatch or API
// failure an error is returned and the caller should keep the originals.
func (c *Client) RephraseInsights(ctx context.Context, insights []string) ([]string, error) {
	if len(insights) == 0 {
		return insights, nil
	}

	resp, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(strings.Join(insights, "\n")),
		},
	})
	if err != nil {
		slog.Error("GenAI RephraseInsights request failed", "error", err)
		return nil, fmt.Errorf("failed to rephrase insights: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	lines := splitNonEmptyLines(resp.Choices[0].Message.Content)
	if len(lines) != len(insights) {
		slog.Warn("GenAI returned a mismatched insight count", "want", len(insights), "got", len(lines))
		return nil, fmt.Errorf("insight count mismatch: want %d, got %d", len(insights), len(lines))
	}
	return lines, nil
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
