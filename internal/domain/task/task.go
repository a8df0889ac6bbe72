package task

import (
	"errors"
	"time"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Task struct {
	ID        string    `json:"id"`
	TaskName  string    `json:"task_name"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound covers both "no such task" and "task owned by someone else".
// The two cases are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("task not found")

type CreateTaskRequest struct {
	TaskName string `json:"task_name" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	Status   string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_progress completed"`
	UserID string `json:"user_id" binding:"required"`
}

type DeleteTaskRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// with pointer if optional, it will be nil
type ListFilter struct {
	UserID *string
}
