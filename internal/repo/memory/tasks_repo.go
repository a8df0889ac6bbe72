package memory

import (
	"context"
	"sync"
	"time"

	"github.com/taskhub/taskhub/internal/domain/task"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
	order []string // ids in insertion order
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) CreateTask(_ context.Context, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(req)

	r.mu.Lock()
	r.items[t.ID] = t
	r.order = append(r.order, t.ID)
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) ListTasks(_ context.Context, filter task.ListFilter) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]task.Task, 0, len(r.order))

	for _, id := range r.order {
		t, ok := r.items[id]

		if !ok {
			continue
		}

		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}

		tasks = append(tasks, t)
	}

	return tasks, nil
}

// UpdateTaskStatus checks ownership and mutates under one lock acquisition,
// matching the single-statement semantics of the database adapters.
func (r *TasksRepo) UpdateTaskStatus(_ context.Context, taskID, userID, status string) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[taskID]

	if !ok || t.UserID != userID {
		return task.Task{}, task.ErrNotFound
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	r.items[taskID] = t

	return t, nil
}

func (r *TasksRepo) DeleteTask(_ context.Context, taskID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[taskID]

	if !ok || t.UserID != userID {
		return task.ErrNotFound
	}

	delete(r.items, taskID)

	for i, id := range r.order {
		if id == taskID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}
