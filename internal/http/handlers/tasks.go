package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/internal/cache"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/task"
	"github.com/taskhub/taskhub/internal/domain/user"
)

type TaskStore interface {
	CreateTask(ctx context.Context, req task.CreateTaskRequest) (task.Task, error)
	ListTasks(ctx context.Context, filter task.ListFilter) ([]task.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, userID, status string) (task.Task, error)
	DeleteTask(ctx context.Context, taskID, userID string) error
}

// UserFinder backs the referential check on task creation: a task may only
// reference a user that exists.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (user.User, error)
}

type TasksHandler struct {
	store TaskStore
	users UserFinder
	cache *cache.Cache
}

func NewTasksHandler(store TaskStore, users UserFinder) *TasksHandler {
	return &TasksHandler{store: store, users: users}
}

func NewTasksHandlerWithCache(store TaskStore, users UserFinder, c *cache.Cache) *TasksHandler {
	return &TasksHandler{store: store, users: users, cache: c}
}

func (h *TasksHandler) invalidate() {
	if h.cache != nil {
		h.cache.Clear()
	}
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	_, err := h.users.GetUserByID(cctx, req.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found. Invalid user_id.")
			return
		}

		RespondInternal(ctx, "An error occurred while creating the task.")
		return
	}

	t, err := h.store.CreateTask(cctx, req)

	if err != nil {
		RespondInternal(ctx, "An error occurred while creating the task.")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully!",
		"taskId":  t.ID,
	})
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	var filter task.ListFilter

	key := "tasks:all"

	if userID, ok := ctx.GetQuery("user_id"); ok && userID != "" {
		filter.UserID = &userID
		key = "tasks:user:" + userID
	}

	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			if tasks, ok := v.([]task.Task); ok {
				ctx.JSON(http.StatusOK, gin.H{"tasks": tasks})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	tasks, err := h.store.ListTasks(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "An error occurred while fetching tasks.")
		return
	}

	if h.cache != nil {
		h.cache.Set(key, tasks)
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TasksHandler) UpdateTaskStatus(ctx *gin.Context) {
	taskID := ctx.Param("id")

	var req task.UpdateTaskStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	t, err := h.store.UpdateTaskStatus(cctx, taskID, req.UserID, req.Status)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			// covers both "no such task" and "not the owner"
			RespondNotFound(ctx, "Task not found or you do not have permission to update this task.")
			return
		}

		RespondInternal(ctx, "An error occurred while updating the task status.")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task status updated successfully!",
		"task":    t,
	})
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	taskID := ctx.Param("id")

	var req task.DeleteTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.store.DeleteTask(cctx, taskID, req.UserID)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found or you do not have permission to delete this task.")
			return
		}

		RespondInternal(ctx, "An error occurred while deleting the task.")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully!",
	})
}
