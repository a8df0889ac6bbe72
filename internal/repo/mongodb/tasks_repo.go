package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskhub/taskhub/internal/domain/task"
	"github.com/taskhub/taskhub/internal/observability"
)

type taskDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TaskName  string             `bson:"task_name"`
	UserID    string             `bson:"user_id"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d taskDoc) toDomain() task.Task {
	return task.Task{
		ID:        d.ID.Hex(),
		TaskName:  d.TaskName,
		UserID:    d.UserID,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type TasksRepo struct {
	tasks *mongo.Collection
	prom  *observability.Prom
}

func NewTasksRepo(db *mongo.Database, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		tasks: db.Collection("tasks"),
		prom:  prom,
	}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) CreateTask(ctx context.Context, req task.CreateTaskRequest) (task.Task, error) {
	now := time.Now().UTC()

	status := req.Status

	if status == "" {
		status = task.StatusPending
	}

	doc := taskDoc{
		ID:        primitive.NewObjectID(),
		TaskName:  req.TaskName,
		UserID:    req.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.observe("tasks.create", func() error {
		_, e := r.tasks.InsertOne(ctx, doc)
		return e
	})

	if err != nil {
		return task.Task{}, err
	}

	return doc.toDomain(), nil
}

func (r *TasksRepo) ListTasks(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	query := bson.M{}

	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}

	// insertion order
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	var cursor *mongo.Cursor

	err := r.observe("tasks.list", func() error {
		var qerr error
		cursor, qerr = r.tasks.Find(ctx, query, opts)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer cursor.Close(ctx)

	tasks := make([]task.Task, 0)

	for cursor.Next(ctx) {
		var doc taskDoc

		if decErr := cursor.Decode(&doc); decErr != nil {
			return nil, decErr
		}

		tasks = append(tasks, doc.toDomain())
	}

	if cursor.Err() != nil {
		return nil, cursor.Err()
	}

	return tasks, nil
}

// UpdateTaskStatus is a single findOneAndUpdate on the compound filter
// {_id, user_id}, so ownership check and mutation cannot race.
func (r *TasksRepo) UpdateTaskStatus(ctx context.Context, taskID, userID, status string) (task.Task, error) {
	oid, err := primitive.ObjectIDFromHex(taskID)

	if err != nil {
		return task.Task{}, task.ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDoc

	err = r.observe("tasks.update_status", func() error {
		return r.tasks.FindOneAndUpdate(ctx,
			bson.M{"_id": oid, "user_id": userID},
			update,
			opts,
		).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return doc.toDomain(), nil
}

// DeleteTask is a single findOneAndDelete on {_id, user_id}.
func (r *TasksRepo) DeleteTask(ctx context.Context, taskID, userID string) error {
	oid, err := primitive.ObjectIDFromHex(taskID)

	if err != nil {
		return task.ErrNotFound
	}

	err = r.observe("tasks.delete", func() error {
		return r.tasks.FindOneAndDelete(ctx,
			bson.M{"_id": oid, "user_id": userID},
		).Err()
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return task.ErrNotFound
		}

		return err
	}

	return nil
}
