package mealplan

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/test/testutils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// recordingMetrics captures what the planning core reports
type recordingMetrics struct {
	mu        sync.Mutex
	built     [][2]int
	collected map[string]int
	failed    map[string]int
	finished  map[task.State]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		collected: map[string]int{},
		failed:    map[string]int{},
		finished:  map[task.State]int{},
	}
}

func (m *recordingMetrics) PlanBuilt(requested, created int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = append(m.built, [2]int{requested, created})
}

func (m *recordingMetrics) CandidatesCollected(provider string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collected[provider] += n
}

func (m *recordingMetrics) ProviderFailed(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[provider]++
}

func (m *recordingMetrics) TaskFinished(state task.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[state]++
}

func (m *recordingMetrics) finishedCount(state task.State) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished[state]
}

func titles(cands []mealplan.RecipeCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Title
	}
	return out
}

func named(provider string, names ...string) []mealplan.RecipeCandidate {
	out := make([]mealplan.RecipeCandidate, len(names))
	for i, n := range names {
		out[i] = mealplan.RecipeCandidate{Title: n, SourceID: provider + "-" + n, Origin: mealplan.OriginCatalog}
	}
	return out
}

func TestProviderChain_FallsBackAfterFailure(t *testing.T) {
	a := &testutils.StaticProvider{ProviderName: "a", Items: named("a", "a1", "a2"), Err: errors.New("timeout")}
	b := &testutils.StaticProvider{ProviderName: "b", Items: named("b", "b1", "b2", "b3", "b4", "b5")}
	metrics := newRecordingMetrics()

	chain := NewProviderChain([]outbound.RecipeProvider{a, b}, metrics, zap.NewNop())
	got := chain.Collect(context.Background(), inventory.Snapshot{}, 4)

	assert.Equal(t, []string{"a1", "a2", "b1", "b2"}, titles(got))
	assert.Equal(t, 2, b.Pulled, "the fallback is pulled only as far as needed")
	assert.Equal(t, 1, metrics.failed["a"])
	assert.Equal(t, 2, metrics.collected["a"])
	assert.Equal(t, 2, metrics.collected["b"])
}

func TestProviderChain_StopsAtTarget(t *testing.T) {
	a := &testutils.StaticProvider{ProviderName: "a", Items: named("a", "a1", "a2", "a3")}
	b := &testutils.StaticProvider{ProviderName: "b", Items: named("b", "b1")}

	chain := NewProviderChain([]outbound.RecipeProvider{a, b}, nil, zap.NewNop())
	got := chain.Collect(context.Background(), inventory.Snapshot{}, 2)

	assert.Equal(t, []string{"a1", "a2"}, titles(got))
	assert.Zero(t, b.Pulled)
}

func TestProviderChain_Deduplicates(t *testing.T) {
	shared := mealplan.RecipeCandidate{Title: "Beef Stew", SourceID: "52874"}
	again := mealplan.RecipeCandidate{Title: "  beef   stew", SourceID: "52874"}
	other := mealplan.RecipeCandidate{Title: "Beef Stew", SourceID: "99999"}

	a := &testutils.StaticProvider{ProviderName: "a", Items: []mealplan.RecipeCandidate{shared, shared}}
	b := &testutils.StaticProvider{ProviderName: "b", Items: []mealplan.RecipeCandidate{again, other}}

	chain := NewProviderChain([]outbound.RecipeProvider{a, b}, nil, zap.NewNop())
	got := chain.Collect(context.Background(), inventory.Snapshot{}, 5)

	assert.Len(t, got, 2)
	assert.Equal(t, "52874", got[0].SourceID)
	assert.Equal(t, "99999", got[1].SourceID)
	assert.Equal(t, "a", got[0].Provider)
	assert.Equal(t, "b", got[1].Provider)
}

func TestProviderChain_RecoversFromPanic(t *testing.T) {
	b := &testutils.StaticProvider{ProviderName: "b", Items: named("b", "b1")}
	metrics := newRecordingMetrics()

	chain := NewProviderChain([]outbound.RecipeProvider{testutils.PanickingProvider{}, b}, metrics, zap.NewNop())
	got := chain.Collect(context.Background(), inventory.Snapshot{}, 3)

	assert.Equal(t, []string{"b1"}, titles(got))
	assert.Equal(t, 1, metrics.failed["panicking"])
}

func TestProviderChain_AllProvidersFail(t *testing.T) {
	a := &testutils.StaticProvider{ProviderName: "a", Err: errors.New("dns")}
	b := &testutils.StaticProvider{ProviderName: "b", Err: errors.New("503")}

	chain := NewProviderChain([]outbound.RecipeProvider{a, b}, nil, zap.NewNop())
	got := chain.Collect(context.Background(), inventory.Snapshot{}, 3)

	assert.Empty(t, got)
}

func TestProviderChain_NothingWanted(t *testing.T) {
	a := &testutils.StaticProvider{ProviderName: "a", Items: named("a", "a1")}

	chain := NewProviderChain([]outbound.RecipeProvider{a}, nil, zap.NewNop())

	assert.Empty(t, chain.Collect(context.Background(), inventory.Snapshot{}, 0))
	assert.Zero(t, a.Pulled)
}

func TestProviderChain_CancelledContext(t *testing.T) {
	a := &testutils.StaticProvider{ProviderName: "a", Items: named("a", "a1")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewProviderChain([]outbound.RecipeProvider{a}, nil, zap.NewNop())

	assert.Empty(t, chain.Collect(ctx, inventory.Snapshot{}, 2))
}
