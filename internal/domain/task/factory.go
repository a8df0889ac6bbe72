package task

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateTaskRequest) Task {
	now := time.Now().UTC()

	status := req.Status

	if status == "" {
		status = StatusPending
	}

	return Task{
		ID:        uuid.NewString(),
		TaskName:  req.TaskName,
		UserID:    req.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
