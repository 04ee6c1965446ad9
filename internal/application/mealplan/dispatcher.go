package mealplan

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/pkg/errors"
	"go.uber.org/zap"
)

// Runner executes one generation job and returns the created plan id
type Runner func(ctx context.Context, job task.GenerateJob) (uuid.UUID, error)

// Dispatcher defers generation to background workers. Each task runs at most once:
// a worker must claim the task before running it, and redeliveries lose the claim.
type Dispatcher struct {
	queue   outbound.JobQueue
	tasks   outbound.TaskStore
	metrics outbound.PlanMetrics
	logger  *zap.Logger
	timeout time.Duration

	mu         sync.Mutex
	cancel     context.CancelFunc
	cancelRuns context.CancelFunc
	wg         sync.WaitGroup
}

// NewDispatcher creates a dispatcher over a job queue and a task status store
func NewDispatcher(queue outbound.JobQueue, tasks outbound.TaskStore, metrics outbound.PlanMetrics, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Dispatcher{
		queue:   queue,
		tasks:   tasks,
		metrics: metrics,
		timeout: timeout,
		logger:  logger.Named("mealplan-dispatcher"),
	}
}

// Enqueue records the task as queued and hands the job to the queue
func (d *Dispatcher) Enqueue(ctx context.Context, job task.GenerateJob) (*task.Handle, error) {
	if job.TaskID == uuid.Nil {
		job.TaskID = uuid.New()
	}

	if err := d.tasks.Create(ctx, task.NewStatus(job)); err != nil {
		return nil, errors.NewPersistenceError("record task", err)
	}

	if err := d.queue.Publish(ctx, job); err != nil {
		if ferr := d.tasks.Fail(ctx, job.TaskID, "enqueue failed"); ferr != nil {
			d.logger.Error("Failed to mark task failed", zap.String("task_id", job.TaskID.String()), zap.Error(ferr))
		}
		return nil, errors.NewInternalError("failed to queue meal plan generation").WithCause(err)
	}

	d.logger.Info("Queued meal plan generation",
		zap.String("task_id", job.TaskID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int("days", job.Days),
		zap.Int("meals_per_day", job.MealsPerDay),
	)

	return &task.Handle{TaskID: job.TaskID, State: task.StateQueued}, nil
}

// Start launches workers consuming from the queue until Stop is called
func (d *Dispatcher) Start(runner Runner, workers int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return
	}
	if workers < 1 {
		workers = 1
	}

	// consumption and in-flight runs stop separately: Stop ends the first at
	// once and the second only when its grace period runs out
	ctx, cancel := context.WithCancel(context.Background())
	runCtx, cancelRuns := context.WithCancel(context.Background())
	d.cancel, d.cancelRuns = cancel, cancelRuns

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			err := d.queue.Consume(ctx, func(_ context.Context, job task.GenerateJob) error {
				d.Handle(runCtx, runner, job)
				return nil
			})
			if err != nil && !stderrors.Is(err, context.Canceled) {
				d.logger.Error("Worker stopped", zap.Int("worker", worker), zap.Error(err))
			}
		}(i)
	}

	d.logger.Info("Dispatcher started", zap.Int("workers", workers))
}

// Stop stops taking new jobs and waits for in-flight ones to finish. Runs
// still going when ctx expires are cancelled and recorded as failed. Jobs the
// queue cannot keep across restarts are drained and failed too.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	cancel, cancelRuns := d.cancel, d.cancelRuns
	d.cancel, d.cancelRuns = nil, nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("Dispatcher stop timed out, cancelling running jobs")
	}
	if cancelRuns != nil {
		cancelRuns()
	}

	err := d.queue.Close()
	if drainer, ok := d.queue.(outbound.Drainer); ok {
		d.failPending(context.WithoutCancel(ctx), drainer.Drain())
	}
	return err
}

func (d *Dispatcher) failPending(ctx context.Context, jobs []task.GenerateJob) {
	for _, job := range jobs {
		d.metrics.TaskFinished(task.StateFailed)
		if err := d.tasks.Fail(ctx, job.TaskID, "dispatcher stopped before the job ran"); err != nil {
			d.logger.Error("Failed to mark pending task failed",
				zap.String("task_id", job.TaskID.String()),
				zap.Error(err),
			)
		}
	}
	if len(jobs) > 0 {
		d.logger.Warn("Failed pending jobs on shutdown", zap.Int("jobs", len(jobs)))
	}
}

// Handle claims and runs one job, recording its outcome. Failures are captured in the
// task status and the log; they are never returned to the queue.
func (d *Dispatcher) Handle(ctx context.Context, runner Runner, job task.GenerateJob) {
	log := d.logger.With(
		zap.String("task_id", job.TaskID.String()),
		zap.String("user_id", job.UserID.String()),
	)

	if err := d.tasks.Claim(ctx, job.TaskID); err != nil {
		if stderrors.Is(err, task.ErrAlreadyClaimed) {
			log.Info("Ignoring duplicate delivery")
			return
		}
		log.Error("Failed to claim task", zap.Error(err))
		return
	}

	log.Info("Running meal plan generation")

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	planID, err := d.run(runCtx, runner, job)
	if err != nil {
		log.Error("Meal plan generation failed", zap.Error(err))
		d.metrics.TaskFinished(task.StateFailed)
		if ferr := d.tasks.Fail(context.WithoutCancel(ctx), job.TaskID, err.Error()); ferr != nil {
			log.Error("Failed to record task failure", zap.Error(ferr))
		}
		return
	}

	d.metrics.TaskFinished(task.StateSucceeded)
	if cerr := d.tasks.Complete(context.WithoutCancel(ctx), job.TaskID, planID); cerr != nil {
		log.Error("Failed to record task completion", zap.Error(cerr))
		return
	}
	log.Info("Meal plan generation finished", zap.String("plan_id", planID.String()))
}

func (d *Dispatcher) run(ctx context.Context, runner Runner, job task.GenerateJob) (planID uuid.UUID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return runner(ctx, job)
}
