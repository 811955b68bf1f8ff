package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"projectmanager/internal/model"
	"projectmanager/internal/repository"
	"projectmanager/internal/telemetry"
)

// ProjectHandler handles HTTP requests for projects.
type ProjectHandler struct {
	repo    *repository.ProjectRepository
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(repo *repository.ProjectRepository, logger *slog.Logger, metrics *telemetry.Metrics) *ProjectHandler {
	return &ProjectHandler{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes returns the chi router with the project routes. Task creation and
// listing live under /{projectID}/tasks, so those two are mounted here from
// the task handler.
func (h *ProjectHandler) Routes(tasks *TaskHandler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/tasks", tasks.Create)
		r.Get("/tasks", tasks.List)
	})

	return r
}

// List returns all projects owned by the caller, newest first.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "ProjectHandler.List")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "GET", "/api/projects", http.StatusUnauthorized, start)
		return
	}

	projects, err := h.repo.List(ctx, caller.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list projects", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to list projects")
		recordMetrics(ctx, h.metrics, "GET", "/api/projects", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int("project.count", len(projects)))
	h.logger.InfoContext(ctx, "projects listed", slog.Int("count", len(projects)))

	respondJSON(w, http.StatusOK, projects)
	recordMetrics(ctx, h.metrics, "GET", "/api/projects", http.StatusOK, start)
}

// Create adds a new project owned by the caller.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "ProjectHandler.Create")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects", http.StatusUnauthorized, start)
		return
	}

	var req model.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, "invalid request body")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects", http.StatusBadRequest, start)
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, err.Error())
		recordMetrics(ctx, h.metrics, "POST", "/api/projects", http.StatusBadRequest, start)
		return
	}

	project, err := h.repo.Create(ctx, caller.UserID, req.Title, req.Description)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create project", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to create project")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int64("project.id", project.ID))
	h.logger.InfoContext(ctx, "project created", slog.Int64("id", project.ID))

	respondJSON(w, http.StatusCreated, project)
	recordMetrics(ctx, h.metrics, "POST", "/api/projects", http.StatusCreated, start)
}

// Get returns a single project owned by the caller.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "ProjectHandler.Get")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "GET", "/api/projects/{id}", http.StatusUnauthorized, start)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, model.ErrProjectNotFound.Error())
		recordMetrics(ctx, h.metrics, "GET", "/api/projects/{id}", http.StatusNotFound, start)
		return
	}
	span.SetAttributes(attribute.Int64("project.id", id))

	project, err := h.repo.Get(ctx, caller.UserID, id)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			h.logger.WarnContext(ctx, "project not found", slog.Int64("id", id))
			respondError(w, http.StatusNotFound, err.Error())
			recordMetrics(ctx, h.metrics, "GET", "/api/projects/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get project", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to get project")
		recordMetrics(ctx, h.metrics, "GET", "/api/projects/{id}", http.StatusInternalServerError, start)
		return
	}

	h.logger.InfoContext(ctx, "project retrieved", slog.Int64("id", id))

	respondJSON(w, http.StatusOK, project)
	recordMetrics(ctx, h.metrics, "GET", "/api/projects/{id}", http.StatusOK, start)
}

// Delete removes a project and all of its tasks.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "ProjectHandler.Delete")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "DELETE", "/api/projects/{id}", http.StatusUnauthorized, start)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, model.ErrProjectNotFound.Error())
		recordMetrics(ctx, h.metrics, "DELETE", "/api/projects/{id}", http.StatusNotFound, start)
		return
	}
	span.SetAttributes(attribute.Int64("project.id", id))

	deleted, err := h.repo.Delete(ctx, caller.UserID, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete project", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to delete project")
		recordMetrics(ctx, h.metrics, "DELETE", "/api/projects/{id}", http.StatusInternalServerError, start)
		return
	}
	if !deleted {
		h.logger.WarnContext(ctx, "project not found", slog.Int64("id", id))
		respondError(w, http.StatusNotFound, model.ErrProjectNotFound.Error())
		recordMetrics(ctx, h.metrics, "DELETE", "/api/projects/{id}", http.StatusNotFound, start)
		return
	}

	h.logger.InfoContext(ctx, "project deleted", slog.Int64("id", id))

	w.WriteHeader(http.StatusNoContent)
	recordMetrics(ctx, h.metrics, "DELETE", "/api/projects/{id}", http.StatusNoContent, start)
}
