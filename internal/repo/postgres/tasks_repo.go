package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub/taskhub/internal/domain/task"
	"github.com/taskhub/taskhub/internal/observability"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) CreateTask(ctx context.Context, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(req)

	err := r.observe("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, task_name, user_id, status, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			t.ID, t.TaskName, t.UserID, t.Status, t.CreatedAt, t.UpdatedAt)
		return e
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListTasks(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	baseQuery := `SELECT id, task_name, user_id, status, created_at, updated_at FROM tasks`

	var args []interface{}

	query := baseQuery

	if filter.UserID != nil {
		query += fmt.Sprintf(" WHERE user_id = $%d", len(args)+1)
		args = append(args, *filter.UserID)
	}

	// insertion order
	query += " ORDER BY created_at ASC, id ASC"

	var rows pgx.Rows

	err := r.observe("tasks.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	tasks := make([]task.Task, 0)

	for rows.Next() {
		var t task.Task

		if scanErr := rows.Scan(&t.ID, &t.TaskName, &t.UserID, &t.Status, &t.CreatedAt, &t.UpdatedAt); scanErr != nil {
			return nil, scanErr
		}

		tasks = append(tasks, t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tasks, nil
}

// UpdateTaskStatus applies the status change and the ownership check as one
// statement; there is no window between "check owner" and "apply update".
func (r *TasksRepo) UpdateTaskStatus(ctx context.Context, taskID, userID, status string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.update_status", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE tasks
			 SET status = $3,
			     updated_at = NOW()
			 WHERE id = $1 AND user_id = $2
			 RETURNING id, task_name, user_id, status, created_at, updated_at`,
			taskID, userID, status,
		).Scan(&t.ID, &t.TaskName, &t.UserID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// DeleteTask removes a task only when the compound key (id, user_id) matches.
func (r *TasksRepo) DeleteTask(ctx context.Context, taskID, userID string) error {
	var tag pgconn.CommandTag

	err := r.observe("tasks.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx,
			`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
			taskID, userID)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}

	return nil
}
