// Package redis stores background task status in Redis
package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "mealplanner:task:"
	claimKeyPrefix  = "mealplanner:task-claim:"
)

// TaskStore keeps task status as JSON values with a TTL. Claims use SETNX so that
// exactly one worker wins per task across processes.
type TaskStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewTaskStore creates a Redis-backed task store
func NewTaskStore(client redis.UniversalClient, ttl time.Duration) outbound.TaskStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TaskStore{client: client, ttl: ttl}
}

func statusKey(id uuid.UUID) string { return statusKeyPrefix + id.String() }
func claimKey(id uuid.UUID) string  { return claimKeyPrefix + id.String() }

// Create records a new task
func (s *TaskStore) Create(ctx context.Context, status task.Status) error {
	return s.put(ctx, status)
}

// Get loads a task status
func (s *TaskStore) Get(ctx context.Context, taskID uuid.UUID) (task.Status, error) {
	raw, err := s.client.Get(ctx, statusKey(taskID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return task.Status{}, task.ErrTaskNotFound
		}
		return task.Status{}, fmt.Errorf("failed to read task: %w", err)
	}

	var status task.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return task.Status{}, fmt.Errorf("failed to decode task: %w", err)
	}
	return status, nil
}

// Claim marks a queued task running for the first caller only
func (s *TaskStore) Claim(ctx context.Context, taskID uuid.UUID) error {
	status, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}

	won, err := s.client.SetNX(ctx, claimKey(taskID), "1", s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to claim task: %w", err)
	}
	if !won || status.State != task.StateQueued {
		return task.ErrAlreadyClaimed
	}

	status.State = task.StateRunning
	status.UpdatedAt = time.Now().UTC()
	return s.put(ctx, status)
}

// Complete records the plan built by a task
func (s *TaskStore) Complete(ctx context.Context, taskID uuid.UUID, planID uuid.UUID) error {
	return s.update(ctx, taskID, func(st *task.Status) {
		st.State = task.StateSucceeded
		st.PlanID = &planID
		st.Error = ""
	})
}

// Fail records why a task did not produce a plan
func (s *TaskStore) Fail(ctx context.Context, taskID uuid.UUID, reason string) error {
	return s.update(ctx, taskID, func(st *task.Status) {
		st.State = task.StateFailed
		st.Error = reason
	})
}

func (s *TaskStore) update(ctx context.Context, taskID uuid.UUID, fn func(*task.Status)) error {
	status, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	fn(&status)
	status.UpdatedAt = time.Now().UTC()
	return s.put(ctx, status)
}

func (s *TaskStore) put(ctx context.Context, status task.Status) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	if err := s.client.Set(ctx, statusKey(status.TaskID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write task: %w", err)
	}
	return nil
}
