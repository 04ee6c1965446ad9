// Package task describes deferred meal plan generation jobs and their status.
package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a task
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrAlreadyClaimed = errors.New("task already claimed")
)

// GenerateJob is the payload handed to a worker. StartDate is YYYY-MM-DD.
type GenerateJob struct {
	TaskID      uuid.UUID `json:"task_id"`
	UserID      uuid.UUID `json:"user_id"`
	StartDate   string    `json:"start_date"`
	Days        int       `json:"days"`
	MealsPerDay int       `json:"meals_per_day"`
	UseFallback bool      `json:"use_fallback"`
}

// Status tracks a task from enqueue to completion
type Status struct {
	TaskID    uuid.UUID  `json:"task_id"`
	UserID    uuid.UUID  `json:"user_id"`
	State     State      `json:"state"`
	PlanID    *uuid.UUID `json:"meal_plan_id,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewStatus returns the queued status for a job
func NewStatus(job GenerateJob) Status {
	now := time.Now().UTC()
	return Status{
		TaskID:    job.TaskID,
		UserID:    job.UserID,
		State:     StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the task has finished
func (s Status) IsTerminal() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}

// Handle is returned to the caller at enqueue time
type Handle struct {
	TaskID uuid.UUID `json:"task_id"`
	State  State     `json:"status"`
}
