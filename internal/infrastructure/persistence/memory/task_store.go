// Package memory provides in-process stores for single-node deployments and tests
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/task"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
)

// TaskStore keeps task status in a map guarded by a mutex
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]task.Status
}

// NewTaskStore creates an empty in-memory task store
func NewTaskStore() outbound.TaskStore {
	return &TaskStore{tasks: make(map[uuid.UUID]task.Status)}
}

// Create records a new task
func (s *TaskStore) Create(_ context.Context, status task.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[status.TaskID] = status
	return nil
}

// Get loads a task status
func (s *TaskStore) Get(_ context.Context, taskID uuid.UUID) (task.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.tasks[taskID]
	if !ok {
		return task.Status{}, task.ErrTaskNotFound
	}
	return status, nil
}

// Claim marks a queued task running for the first caller only
func (s *TaskStore) Claim(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.tasks[taskID]
	if !ok {
		return task.ErrTaskNotFound
	}
	if status.State != task.StateQueued {
		return task.ErrAlreadyClaimed
	}
	status.State = task.StateRunning
	status.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = status
	return nil
}

// Complete records the plan built by a task
func (s *TaskStore) Complete(_ context.Context, taskID uuid.UUID, planID uuid.UUID) error {
	return s.update(taskID, func(st *task.Status) {
		st.State = task.StateSucceeded
		st.PlanID = &planID
		st.Error = ""
	})
}

// Fail records why a task did not produce a plan
func (s *TaskStore) Fail(_ context.Context, taskID uuid.UUID, reason string) error {
	return s.update(taskID, func(st *task.Status) {
		st.State = task.StateFailed
		st.Error = reason
	})
}

func (s *TaskStore) update(taskID uuid.UUID, fn func(*task.Status)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.tasks[taskID]
	if !ok {
		return task.ErrTaskNotFound
	}
	fn(&status)
	status.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = status
	return nil
}
