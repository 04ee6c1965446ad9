// Package mealdb reads recipes from TheMealDB JSON API
package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Meal is one raw record of the API. Ingredient and measure fields are numbered
// (strIngredient1..20), so records decode into a map.
type Meal map[string]any

// Response is the envelope of lookup and search replies. Meals is nil when nothing matched.
type Response struct {
	Meals []Meal `json:"meals"`
}

// Config holds client settings
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

// Client performs paced requests against the API
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		logger:  logger.Named("mealdb-client"),
	}
}

// Lookup fetches a meal by its id
func (c *Client) Lookup(ctx context.Context, id string) ([]Meal, error) {
	return c.get(ctx, "lookup.php", url.Values{"i": {id}})
}

// Search fetches meals whose name matches term
func (c *Client) Search(ctx context.Context, term string) ([]Meal, error) {
	return c.get(ctx, "search.php", url.Values{"s": {term}})
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]Meal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("MealDB request",
		zap.String("endpoint", endpoint),
		zap.String("query", params.Encode()),
		zap.Int("meals", len(out.Meals)),
		zap.Duration("latency", time.Since(start)),
	)
	return out.Meals, nil
}
