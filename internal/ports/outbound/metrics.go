package outbound

import "github.com/greenbite/mealplanner/internal/domain/task"

// PlanMetrics receives counters from the planning core
type PlanMetrics interface {
	PlanBuilt(requested, created int)
	CandidatesCollected(provider string, n int)
	ProviderFailed(provider string)
	TaskFinished(state task.State)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) PlanBuilt(int, int)                {}
func (NopMetrics) CandidatesCollected(string, int)   {}
func (NopMetrics) ProviderFailed(string)             {}
func (NopMetrics) TaskFinished(task.State)           {}
