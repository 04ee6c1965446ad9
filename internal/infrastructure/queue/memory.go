// Package queue provides JobQueue backends: an in-process channel, a Redis list
// and an AMQP queue
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"go.uber.org/zap"
)

// ErrQueueClosed is returned when publishing to a closed queue
var ErrQueueClosed = errors.New("queue closed")

// MemoryQueue is a buffered channel shared by all consumers of one process
type MemoryQueue struct {
	jobs   chan task.GenerateJob
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger

	// publishers hold the read lock so Close can wait them out before draining
	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates an in-process queue holding up to size pending jobs
func NewMemoryQueue(size int, logger *zap.Logger) *MemoryQueue {
	if size < 1 {
		size = 64
	}
	return &MemoryQueue{
		jobs:   make(chan task.GenerateJob, size),
		done:   make(chan struct{}),
		logger: logger.Named("memory-queue"),
	}
}

var (
	_ outbound.JobQueue = (*MemoryQueue)(nil)
	_ outbound.Drainer  = (*MemoryQueue)(nil)
)

// Publish enqueues a job, blocking while the buffer is full
func (q *MemoryQueue) Publish(ctx context.Context, job task.GenerateJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers jobs to handler until ctx is cancelled or the queue is closed
func (q *MemoryQueue) Consume(ctx context.Context, handler outbound.JobHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case job := <-q.jobs:
			if err := handler(ctx, job); err != nil {
				q.logger.Warn("Job handler returned error",
					zap.String("task_id", job.TaskID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// Close stops consumers and rejects further publishes. Jobs still buffered
// stay in the queue until Drain takes them.
func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}

// Drain removes and returns every job still buffered. Jobs held here never
// outlive the process, so callers settle them before exit.
func (q *MemoryQueue) Drain() []task.GenerateJob {
	var left []task.GenerateJob
	for {
		select {
		case job := <-q.jobs:
			left = append(left, job)
		default:
			return left
		}
	}
}
