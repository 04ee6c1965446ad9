// Package gemini provides Google Gemini integration for text generation
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client implements the TextGenerator port over the Gemini API
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *zap.Logger
}

// NewClient creates a Gemini client for the given model
func NewClient(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	m := client.GenerativeModel(model)
	m.ResponseMIMEType = "application/json"

	logger.Info("Gemini client initialized", zap.String("model", model))

	return &Client{
		client: client,
		model:  m,
		logger: logger.Named("gemini-client"),
	}, nil
}

var _ outbound.TextGenerator = (*Client)(nil)

// Name identifies the backend
func (c *Client) Name() string { return "gemini" }

// GenerateContent sends a prompt and returns the concatenated text parts of the first candidate
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("generated content is not text")
	}

	c.logger.Debug("Gemini generation successful", zap.Int("chars", b.Len()))
	return b.String(), nil
}

// Close closes the underlying Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}
