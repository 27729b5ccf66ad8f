/*
Package llm wraps the chat-completion provider behind a one-method client.

PURPOSE:
  The pipeline's Generator boundary. The client sends a system role plus a
  rendered prompt and returns the completion text. Errors here are plain
  transport/provider errors; the pipeline decides what they mean for a run.

CONFIGURATION:
  BaseURL makes the client work against any OpenAI-compatible endpoint
  (hosted API, local inference server, test double). See config package for
  the environment bindings.
*/
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gpt-4o-mini"

type Config struct {
	APIKey      string
	BaseURL     string  // Empty means the provider default
	Model       string  // Empty means DefaultModel
	Temperature float32 // Zero means provider default
	MaxTokens   int     // Zero means no cap
}

// Client calls a chat-completion endpoint.
type Client struct {
	api    *openai.Client
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:    openai.NewClientWithConfig(oc),
		cfg:    cfg,
		logger: logger,
	}
}

// Generate sends the system role and prompt as one chat completion and
// returns the completion text. The caller bounds the call with ctx.
func (c *Client) Generate(ctx context.Context, systemRole, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.cfg.Model).Int("prompt_len", len(prompt)).Msg("requesting completion")

	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
	}
	if c.cfg.MaxTokens > 0 {
		req.MaxCompletionTokens = c.cfg.MaxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}

	c.logger.Debug().
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("content_len", len(content)).
		Msg("completion received")
	return content, nil
}
