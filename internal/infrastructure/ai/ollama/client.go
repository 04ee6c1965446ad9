// Package ollama provides Ollama integration for local text generation
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"go.uber.org/zap"
)

const systemPrompt = "You are a meal planning assistant. Reply with JSON only, no prose."

// Config holds Ollama connection settings
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// Client implements the TextGenerator port using the Ollama chat API
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient fills unset fields with local-daemon defaults
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:3b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger.Info("Using Ollama for generated recipes", zap.String("host", cfg.Host), zap.String("model", cfg.Model))

	return &Client{
		baseURL: strings.TrimRight(cfg.Host, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("ollama-client"),
	}
}

var _ outbound.TextGenerator = (*Client)(nil)

// ChatMessage is one turn of an Ollama chat
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// ChatResponse is the non-streaming reply of /api/chat
type ChatResponse struct {
	Model        string      `json:"model"`
	Message      ChatMessage `json:"message"`
	Done         bool        `json:"done"`
	EvalCount    int         `json:"eval_count,omitempty"`
	EvalDuration int64       `json:"eval_duration,omitempty"`
}

// Name identifies the backend
func (c *Client) Name() string { return "ollama" }

// HealthCheck lists local models, which only succeeds when the daemon is up
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	return err
}

// GenerateContent sends prompt as a single user turn in JSON mode and returns the reply text
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Format:  "json",
		Options: map[string]interface{}{"temperature": 0.7, "num_predict": 2000, "num_ctx": 4096},
	})
	if err != nil {
		return "", fmt.Errorf("ollama: encode chat request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/chat", body)
	if err != nil {
		return "", err
	}

	var reply ChatResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("ollama: decode chat reply: %w", err)
	}
	if !reply.Done {
		return "", fmt.Errorf("ollama: reply from %s was cut short", reply.Model)
	}

	c.logger.Debug("Chat completed",
		zap.String("model", reply.Model),
		zap.Int("tokens", reply.EvalCount),
		zap.Duration("eval", time.Duration(reply.EvalDuration)))

	return reply.Message.Content, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("ollama: build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read %s reply: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: %s answered %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
