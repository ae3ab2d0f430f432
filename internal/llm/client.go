// Package llm wraps the Gemini API behind the two narrow capabilities the
// rest of the service needs: completing a conversation and embedding text.
// The surrounding packages define their own consumer interfaces
// (chat.Completer, places.Embedder); *Client satisfies both.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/munch-labs/munch/internal/history"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultModel          = "gemini-2.5-flash"
	DefaultEmbedModel     = "gemini-embedding-001"
	DefaultEmbedDimension = int32(768)
)

// Config holds Gemini client settings.
type Config struct {
	APIKey         string
	Model          string
	EmbedModel     string
	EmbedDimension int32
	Retry          RetryConfig // zero value takes DefaultRetryConfig
}

// Client is a Gemini-backed completion and embedding provider.
type Client struct {
	genai    *genai.Client
	model    string
	embed    string
	embedDim int32
	retry    RetryConfig
	logger   *slog.Logger
}

// New creates a Gemini client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.EmbedDimension <= 0 {
		cfg.EmbedDimension = DefaultEmbedDimension
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{
		genai:    client,
		model:    cfg.Model,
		embed:    cfg.EmbedModel,
		embedDim: cfg.EmbedDimension,
		retry:    cfg.Retry,
		logger:   logger,
	}, nil
}

// Complete sends the conversation to the model and returns its reply. The
// final message in msgs is expected to be the augmented user prompt.
func (c *Client) Complete(ctx context.Context, msgs []history.Message) (string, error) {
	contents := Contents(msgs)
	if len(contents) == 0 {
		return "", fmt.Errorf("no messages to complete")
	}

	resp, err := withRetry(ctx, c.retry, c.logger, "completion", func() (*genai.GenerateContentResponse, error) {
		return c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	})
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}

	c.logger.Debug("completion", "model", c.model, "turns", len(contents), "reply_len", len(text))
	return text, nil
}

// EmbedText returns the embedding for the given text at the configured
// dimensionality.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	dim := c.embedDim
	resp, err := withRetry(ctx, c.retry, c.logger, "embedding", func() (*genai.EmbedContentResponse, error) {
		return c.genai.Models.EmbedContent(ctx, c.embed, genai.Text(text),
			&genai.EmbedContentConfig{OutputDimensionality: &dim})
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// Contents maps stored messages to Gemini conversation contents.
//
// human and system_human_setup rows become user turns, ai rows become model
// turns. human_no_prompt rows are skipped: the raw user input is replayed to
// the model through its augmented human twin, so including both would
// duplicate the query.
func Contents(msgs []history.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Kind {
		case history.KindHuman, history.KindSetup:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case history.KindAI:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case history.KindHumanNoPrompt:
			// Skipped; see above.
		}
	}
	return contents
}
