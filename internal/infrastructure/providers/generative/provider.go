// Package generative produces recipe candidates from a text generation backend
package generative

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"text/template"

	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptText string

var promptTemplate = template.Must(template.New("generative").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptText))

// maxBatches bounds the number of generation calls per sequence
const maxBatches = 3

type promptData struct {
	Count  int
	Pantry []string
	Avoid  []string
}

// Provider asks a TextGenerator for batches of recipes. A batch is only requested
// when the previous one has been consumed.
type Provider struct {
	gen       outbound.TextGenerator
	batchSize int
	logger    *zap.Logger
}

// NewProvider creates a generative provider
func NewProvider(gen outbound.TextGenerator, batchSize int, logger *zap.Logger) *Provider {
	if batchSize < 1 {
		batchSize = 6
	}
	return &Provider{
		gen:       gen,
		batchSize: batchSize,
		logger:    logger.Named("generative-provider"),
	}
}

var _ outbound.RecipeProvider = (*Provider)(nil)

// Name identifies the provider
func (p *Provider) Name() string { return "generative" }

// Candidates generates batches until a batch brings nothing new or the batch budget is spent
func (p *Provider) Candidates(ctx context.Context, pantry inventory.Snapshot) iter.Seq2[mealplan.RecipeCandidate, error] {
	return func(yield func(mealplan.RecipeCandidate, error) bool) {
		var titles []string
		seen := make(map[string]struct{})

		for batch := 0; batch < maxBatches; batch++ {
			prompt, err := buildPrompt(promptData{
				Count:  p.batchSize,
				Pantry: pantry.IngredientNames(),
				Avoid:  titles,
			})
			if err != nil {
				yield(mealplan.RecipeCandidate{}, errors.NewSourceUnavailableError(p.Name(), err))
				return
			}

			text, err := p.gen.GenerateContent(ctx, prompt)
			if err != nil {
				yield(mealplan.RecipeCandidate{}, errors.NewSourceUnavailableError(p.gen.Name(), err))
				return
			}

			records, err := ParseRecipes(text)
			if err != nil {
				p.logger.Warn("Discarding malformed generation",
					zap.String("backend", p.gen.Name()),
					zap.Int("chars", len(text)),
				)
				yield(mealplan.RecipeCandidate{}, errors.NewSourceUnavailableError(p.gen.Name(), err))
				return
			}

			fresh := 0
			for _, rec := range records {
				c := mealplan.CandidateFromFields(rec, mealplan.OriginGenerative, p.gen.Name())
				if c.Title == "" {
					continue
				}
				key := mealplan.NormalizeTitle(c.Title)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				titles = append(titles, c.Title)
				fresh++
				if !yield(c, nil) {
					return
				}
			}

			p.logger.Debug("Generated recipe batch",
				zap.String("backend", p.gen.Name()),
				zap.Int("batch", batch),
				zap.Int("new", fresh),
			)
			if fresh == 0 {
				return
			}
		}
	}
}

func buildPrompt(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseRecipes extracts the recipe objects from generated text. It accepts a bare
// JSON array, an object with a "recipes" array, or either wrapped in a code fence.
func ParseRecipes(text string) ([]map[string]any, error) {
	body := stripFences(text)

	var list []map[string]any
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Recipes []map[string]any `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil && wrapped.Recipes != nil {
		return wrapped.Recipes, nil
	}

	// fall back to the outermost array in surrounding prose
	start, end := strings.Index(body, "["), strings.LastIndex(body, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(body[start:end+1]), &list); err == nil {
			return list, nil
		}
	}

	return nil, fmt.Errorf("generated text is not a JSON recipe list")
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
