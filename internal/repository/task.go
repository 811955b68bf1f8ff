package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"projectmanager/internal/model"
)

// Sort keys accepted by List. Anything else falls back to creation (id) order.
const (
	SortByDueDate = "duedate"
	SortByTitle   = "title"
)

// TaskRepository provides sqlite-backed storage for tasks. A task is only
// visible through the owner of its parent project, so every statement joins
// or subqueries the projects table on owner_id in a single predicate.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a new task under projectID. The insert only happens when
// the project exists and is owned by ownerID; otherwise it returns
// model.ErrProjectNotFound.
func (r *TaskRepository) Create(ctx context.Context, ownerID, projectID int64, title string, dueDate *time.Time, isCompleted bool) (*model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.Create",
		trace.WithAttributes(
			attribute.Int64("project.id", projectID),
			attribute.String("task.title", title),
		),
	)
	defer span.End()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, title, due_date, is_completed, created_at)
		 SELECT ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM projects WHERE id = ? AND owner_id = ?)`,
		projectID, title, nullableTime(dueDate), isCompleted, now,
		projectID, ownerID,
	)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		span.SetAttributes(attribute.Bool("project.found", false))
		return nil, model.ErrProjectNotFound
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("task.id", id))
	return r.Get(ctx, ownerID, id)
}

// Get retrieves a task by id, restricted to the owner of its parent project.
func (r *TaskRepository) Get(ctx context.Context, ownerID, id int64) (*model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.Get",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()

	var (
		t   model.Task
		due sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.project_id, t.title, t.due_date, t.is_completed, t.created_at
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.id = ? AND p.owner_id = ?`,
		id, ownerID,
	).Scan(&t.ID, &t.ProjectID, &t.Title, &due, &t.IsCompleted, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("task.found", false))
			return nil, model.ErrTaskNotFound
		}
		return nil, err
	}
	if due.Valid {
		t.DueDate = &due.Time
	}

	span.SetAttributes(attribute.Bool("task.found", true))
	return &t, nil
}

// List returns the tasks of a project owned by ownerID, materialized once per
// call. The optional completed filter restricts by completion flag. sortKey
// "duedate" orders by due date ascending with tasks that have no due date
// first (sqlite sorts NULLs before any value); "title" orders by title
// ascending, case-sensitive under the default BINARY collation. Any other
// key, including empty, orders by id ascending.
func (r *TaskRepository) List(ctx context.Context, ownerID, projectID int64, completed *bool, sortKey string) ([]model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.List",
		trace.WithAttributes(attribute.Int64("project.id", projectID)),
	)
	defer span.End()

	var sb strings.Builder
	sb.WriteString(
		`SELECT t.id, t.project_id, t.title, t.due_date, t.is_completed, t.created_at
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.project_id = ? AND p.owner_id = ?`)
	args := []any{projectID, ownerID}

	if completed != nil {
		sb.WriteString(" AND t.is_completed = ?")
		args = append(args, *completed)
	}

	switch sortKey {
	case SortByDueDate:
		sb.WriteString(" ORDER BY t.due_date ASC, t.id ASC")
	case SortByTitle:
		sb.WriteString(" ORDER BY t.title ASC, t.id ASC")
	default:
		sb.WriteString(" ORDER BY t.id ASC")
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var (
			t   model.Task
			due sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &due, &t.IsCompleted, &t.CreatedAt); err != nil {
			return nil, err
		}
		if due.Valid {
			t.DueDate = &due.Time
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	return tasks, nil
}

// Update applies a partial update under the transitive ownership gate. An
// empty or whitespace title keeps the stored title, a nil due date keeps the
// stored due date, and isCompleted always overwrites the stored flag.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id int64, req *model.UpdateTaskRequest) (*model.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.Update",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()

	title := strings.TrimSpace(req.Title)
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET
			title = CASE WHEN ? = '' THEN title ELSE ? END,
			due_date = COALESCE(?, due_date),
			is_completed = ?
		 WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE owner_id = ?)`,
		title, title, nullableTime(req.DueDate), req.IsCompleted,
		id, ownerID,
	)
	if err != nil {
		return nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		span.SetAttributes(attribute.Bool("task.found", false))
		return nil, model.ErrTaskNotFound
	}

	span.SetAttributes(attribute.Bool("task.found", true))
	return r.Get(ctx, ownerID, id)
}

// Delete removes a task under the transitive ownership gate. It reports
// whether a row matched, so a repeated delete yields false rather than an
// error.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "TaskRepository.Delete",
		trace.WithAttributes(attribute.Int64("task.id", id)),
	)
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks
		 WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE owner_id = ?)`,
		id, ownerID,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	span.SetAttributes(attribute.Bool("task.found", n > 0))
	return n > 0, nil
}

// CountOpen returns the number of incomplete tasks across all users. It feeds
// the observable gauge, so it swallows errors and reports zero instead.
func (r *TaskRepository) CountOpen() int64 {
	var n int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE is_completed = 0`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
