package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"projectmanager/internal/auth"
	"projectmanager/internal/model"
	"projectmanager/internal/telemetry"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	svc     *auth.Service
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *auth.Service, logger *slog.Logger, metrics *telemetry.Metrics) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes returns the chi router with the public auth routes.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	return r
}

// Register creates a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "AuthHandler.Register")
	defer span.End()

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, "invalid request body")
		recordMetrics(ctx, h.metrics, "POST", "/api/auth/register", http.StatusBadRequest, start)
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, err.Error())
		recordMetrics(ctx, h.metrics, "POST", "/api/auth/register", http.StatusBadRequest, start)
		return
	}

	user, err := h.svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		var domainErr model.Error
		if errors.As(err, &domainErr) {
			h.logger.WarnContext(ctx, "registration rejected", slog.Any("error", err))
			respondError(w, http.StatusBadRequest, err.Error())
			recordMetrics(ctx, h.metrics, "POST", "/api/auth/register", http.StatusBadRequest, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to register user", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to register user")
		recordMetrics(ctx, h.metrics, "POST", "/api/auth/register", http.StatusInternalServerError, start)
		return
	}

	h.logger.InfoContext(ctx, "user registered", slog.Int64("id", user.ID), slog.String("username", user.Username))

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
	recordMetrics(ctx, h.metrics, "POST", "/api/auth/register", http.StatusCreated, start)
}

// Login authenticates a username/password pair and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "AuthHandler.Login")
	defer span.End()

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, "invalid request body")
		recordMetrics(ctx, h.metrics, "POST", "/api/auth/login", http.StatusBadRequest, start)
		return
	}

	token, err := h.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			h.logger.WarnContext(ctx, "login rejected", slog.String("username", req.Username))
			respondError(w, http.StatusUnauthorized, err.Error())
			recordMetrics(ctx, h.metrics, "POST", "/api/auth/login", http.StatusUnauthorized, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to log in user", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to log in")
		recordMetrics(ctx, h.metrics, "POST", "/api/auth/login", http.StatusInternalServerError, start)
		return
	}

	h.logger.InfoContext(ctx, "user logged in", slog.String("username", req.Username))

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
	recordMetrics(ctx, h.metrics, "POST", "/api/auth/login", http.StatusOK, start)
}
