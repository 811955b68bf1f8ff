package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"projectmanager/internal/model"
)

// ProjectRepository provides sqlite-backed storage for projects. Every query
// carries the owner id in its predicate; a project owned by another user is
// indistinguishable from a missing one.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create persists a new project owned by ownerID.
func (r *ProjectRepository) Create(ctx context.Context, ownerID int64, title, description string) (*model.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectRepository.Create",
		trace.WithAttributes(attribute.String("project.title", title)),
	)
	defer span.End()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (owner_id, title, description, created_at) VALUES (?, ?, ?, ?)`,
		ownerID, title, description, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("project.id", id))
	return r.Get(ctx, ownerID, id)
}

// Get retrieves a project by id, restricted to the given owner.
func (r *ProjectRepository) Get(ctx context.Context, ownerID, id int64) (*model.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectRepository.Get",
		trace.WithAttributes(attribute.Int64("project.id", id)),
	)
	defer span.End()

	p := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, created_at
		 FROM projects WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("project.found", false))
			return nil, model.ErrProjectNotFound
		}
		return nil, err
	}

	span.SetAttributes(attribute.Bool("project.found", true))
	return p, nil
}

// List returns all projects owned by ownerID, newest first.
func (r *ProjectRepository) List(ctx context.Context, ownerID int64) ([]model.Project, error) {
	ctx, span := tracer.Start(ctx, "ProjectRepository.List")
	defer span.End()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description, created_at
		 FROM projects WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("project.count", len(projects)))
	return projects, nil
}

// Delete removes a project and, via the cascading foreign key, all of its
// tasks in one atomic statement. It reports whether a row matched the
// ownership-scoped predicate.
func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "ProjectRepository.Delete",
		trace.WithAttributes(attribute.Int64("project.id", id)),
	)
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	span.SetAttributes(attribute.Bool("project.found", n > 0))
	return n > 0, nil
}
