package auth

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"projectmanager/internal/model"
	"projectmanager/internal/repository"
)

var tracer = otel.Tracer("projectmanager/internal/auth")

// Service implements registration and credential-based login.
type Service struct {
	users  *repository.UserRepository
	tokens *TokenManager
}

// NewService creates a new auth Service.
func NewService(users *repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new user with a hashed password. Input constraints are
// validated again here even though the HTTP layer already checks them.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "Service.Register",
		trace.WithAttributes(attribute.String("user.username", username)),
	)
	defer span.End()

	req := model.RegisterRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, username, hash)
}

// Login authenticates a username/password pair and returns a session token.
// An unknown username and a wrong password produce the same
// model.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Service.Login",
		trace.WithAttributes(attribute.String("user.username", username)),
	)
	defer span.End()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return "", model.ErrInvalidCredentials
		}
		return "", err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return "", model.ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}
