package outbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/task"
)

// JobHandler executes one deferred generation job
type JobHandler func(ctx context.Context, job task.GenerateJob) error

// JobQueue carries generation jobs from the request path to workers
type JobQueue interface {
	Publish(ctx context.Context, job task.GenerateJob) error
	// Consume blocks, delivering jobs to handler until ctx is cancelled
	Consume(ctx context.Context, handler JobHandler) error
	Close() error
}

// Drainer is implemented by queues whose pending jobs are lost when the
// process exits. Drain is called after Close.
type Drainer interface {
	Drain() []task.GenerateJob
}

// TaskStore records task status. Claim moves a queued task to running and
// succeeds for exactly one caller per task.
type TaskStore interface {
	Create(ctx context.Context, status task.Status) error
	Get(ctx context.Context, taskID uuid.UUID) (task.Status, error)
	Claim(ctx context.Context, taskID uuid.UUID) error
	Complete(ctx context.Context, taskID uuid.UUID, planID uuid.UUID) error
	Fail(ctx context.Context, taskID uuid.UUID, reason string) error
}
