package mealdb

import (
	"context"
	"iter"

	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.uber.org/zap"
)

// maxPantryTerms caps how many pantry items are turned into searches
const maxPantryTerms = 3

// Provider yields meals by configured id, then by pantry ingredient name, then by
// configured search term. Requests are only made as the sequence is pulled.
type Provider struct {
	client   *Client
	mealIDs  []string
	searches []string
	logger   *zap.Logger
}

// NewProvider creates an external provider over the MealDB client
func NewProvider(client *Client, mealIDs, searches []string, logger *zap.Logger) *Provider {
	return &Provider{
		client:   client,
		mealIDs:  mealIDs,
		searches: searches,
		logger:   logger.Named("mealdb-provider"),
	}
}

var _ outbound.RecipeProvider = (*Provider)(nil)

// Name identifies the provider
func (p *Provider) Name() string { return "mealdb" }

type request struct {
	lookup bool
	value  string
}

// Candidates fetches lazily; the first failed request ends the sequence with SOURCE_UNAVAILABLE
func (p *Provider) Candidates(ctx context.Context, pantry inventory.Snapshot) iter.Seq2[mealplan.RecipeCandidate, error] {
	return func(yield func(mealplan.RecipeCandidate, error) bool) {
		for _, req := range p.plan(pantry) {
			var (
				meals []Meal
				err   error
			)
			if req.lookup {
				meals, err = p.client.Lookup(ctx, req.value)
			} else {
				meals, err = p.client.Search(ctx, req.value)
			}
			if err != nil {
				yield(mealplan.RecipeCandidate{}, errors.NewSourceUnavailableError(p.Name(), err).
					WithMetadata("query", req.value))
				return
			}

			for _, m := range meals {
				c := ToCandidate(m, p.Name())
				if c.Title == "" {
					continue
				}
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

func (p *Provider) plan(pantry inventory.Snapshot) []request {
	reqs := make([]request, 0, len(p.mealIDs)+len(p.searches)+maxPantryTerms)
	for _, id := range p.mealIDs {
		reqs = append(reqs, request{lookup: true, value: id})
	}
	names := pantry.IngredientNames()
	if len(names) > maxPantryTerms {
		names = names[:maxPantryTerms]
	}
	for _, n := range names {
		reqs = append(reqs, request{value: n})
	}
	for _, s := range p.searches {
		reqs = append(reqs, request{value: s})
	}
	return reqs
}
