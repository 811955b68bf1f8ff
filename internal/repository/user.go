package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"projectmanager/internal/model"
)

// UserRepository provides sqlite-backed storage for users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.Create",
		trace.WithAttributes(attribute.String("user.username", username)),
	)
	defer span.End()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, model.ErrDuplicateUsername
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", id))
	return &model.User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.GetByUsername",
		trace.WithAttributes(attribute.String("user.username", username)),
	)
	defer span.End()

	u := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("user.found", false))
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	span.SetAttributes(attribute.Bool("user.found", true))
	return u, nil
}
