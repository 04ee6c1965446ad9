package mealplan

import (
	"context"
	"fmt"

	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProviderChain pulls candidates from providers in priority order, falling back to
// the next provider when one is exhausted or fails
type ProviderChain struct {
	providers []outbound.RecipeProvider
	metrics   outbound.PlanMetrics
	logger    *zap.Logger
}

// NewProviderChain creates a chain over providers, highest priority first
func NewProviderChain(providers []outbound.RecipeProvider, metrics outbound.PlanMetrics, logger *zap.Logger) *ProviderChain {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &ProviderChain{
		providers: providers,
		metrics:   metrics,
		logger:    logger.Named("provider-chain"),
	}
}

// Collect returns up to want deduplicated candidates. Provider failures are logged
// and skipped; fewer candidates than requested is not an error.
func (c *ProviderChain) Collect(ctx context.Context, pantry inventory.Snapshot, want int) []mealplan.RecipeCandidate {
	ctx, span := tracer.Start(ctx, "ProviderChain.Collect", trace.WithAttributes(attribute.Int("want", want)))
	defer span.End()

	if want <= 0 {
		return nil
	}

	out := make([]mealplan.RecipeCandidate, 0, want)
	seen := make(map[string]struct{}, want)

	for _, p := range c.providers {
		if len(out) >= want {
			break
		}
		if err := ctx.Err(); err != nil {
			c.logger.Warn("Stopping candidate collection", zap.Error(err))
			break
		}

		before := len(out)
		if err := c.drain(ctx, p, pantry, want, seen, &out); err != nil {
			c.metrics.ProviderFailed(p.Name())
			c.logger.Warn("Recipe provider failed, falling back",
				zap.String("provider", p.Name()),
				zap.Int("collected", len(out)-before),
				zap.Error(err),
			)
		}

		got := len(out) - before
		c.metrics.CandidatesCollected(p.Name(), got)
		c.logger.Debug("Provider contributed candidates",
			zap.String("provider", p.Name()),
			zap.Int("count", got),
		)
	}

	if len(out) < want {
		c.logger.Info("Providers exhausted before target",
			zap.Int("want", want),
			zap.Int("got", len(out)),
		)
	}
	span.SetAttributes(attribute.Int("collected", len(out)))

	return out
}

func (c *ProviderChain) drain(
	ctx context.Context,
	p outbound.RecipeProvider,
	pantry inventory.Snapshot,
	want int,
	seen map[string]struct{},
	out *[]mealplan.RecipeCandidate,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()

	for cand, ferr := range p.Candidates(ctx, pantry) {
		if ferr != nil {
			return ferr
		}
		key := cand.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if cand.Provider == "" {
			cand.Provider = p.Name()
		}
		*out = append(*out, cand)
		if len(*out) >= want {
			return nil
		}
	}
	return nil
}
