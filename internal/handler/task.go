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

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	repo    *repository.TaskRepository
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(repo *repository.TaskRepository, logger *slog.Logger, metrics *telemetry.Metrics) *TaskHandler {
	return &TaskHandler{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes returns the chi router with the task routes addressed by task id.
// Creation and listing are nested under the project routes instead.
func (h *TaskHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Put("/{taskID}", h.Update)
	r.Delete("/{taskID}", h.Delete)

	return r
}

// Create adds a new task to a project the caller owns. A project reference in
// the body, when present, must match the route; the route value is what gets
// persisted.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TaskHandler.Create")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusUnauthorized, start)
		return
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, model.ErrProjectNotFound.Error())
		recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusNotFound, start)
		return
	}
	span.SetAttributes(attribute.Int64("project.id", projectID))

	var req model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, "invalid request body")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusBadRequest, start)
		return
	}

	if req.ProjectID != 0 && req.ProjectID != projectID {
		h.logger.WarnContext(ctx, "project reference mismatch",
			slog.Int64("route", projectID), slog.Int64("body", req.ProjectID))
		respondError(w, http.StatusBadRequest, "projectId in body does not match projectId in route")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusBadRequest, start)
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, err.Error())
		recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusBadRequest, start)
		return
	}

	task, err := h.repo.Create(ctx, caller.UserID, projectID, req.Title, req.DueDate, req.IsCompleted)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			h.logger.WarnContext(ctx, "project not found", slog.Int64("id", projectID))
			respondError(w, http.StatusBadRequest, err.Error())
			recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusBadRequest, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create task", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to create task")
		recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))
	h.logger.InfoContext(ctx, "task created", slog.Int64("id", task.ID))

	respondJSON(w, http.StatusCreated, task)
	recordMetrics(ctx, h.metrics, "POST", "/api/projects/{projectId}/tasks", http.StatusCreated, start)
}

// List returns the tasks of a project the caller owns, with optional
// completion filter and sort key from the query string.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TaskHandler.List")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "GET", "/api/projects/{projectId}/tasks", http.StatusUnauthorized, start)
		return
	}

	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, model.ErrProjectNotFound.Error())
		recordMetrics(ctx, h.metrics, "GET", "/api/projects/{projectId}/tasks", http.StatusNotFound, start)
		return
	}
	span.SetAttributes(attribute.Int64("project.id", projectID))

	var completed *bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid completed filter")
			recordMetrics(ctx, h.metrics, "GET", "/api/projects/{projectId}/tasks", http.StatusBadRequest, start)
			return
		}
		completed = &v
	}

	tasks, err := h.repo.List(ctx, caller.UserID, projectID, completed, r.URL.Query().Get("sort"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list tasks", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to list tasks")
		recordMetrics(ctx, h.metrics, "GET", "/api/projects/{projectId}/tasks", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	h.logger.InfoContext(ctx, "tasks listed", slog.Int("count", len(tasks)))

	respondJSON(w, http.StatusOK, tasks)
	recordMetrics(ctx, h.metrics, "GET", "/api/projects/{projectId}/tasks", http.StatusOK, start)
}

// Update applies a partial update to a task the caller transitively owns.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TaskHandler.Update")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "PUT", "/api/tasks/{id}", http.StatusUnauthorized, start)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, model.ErrTaskNotFound.Error())
		recordMetrics(ctx, h.metrics, "PUT", "/api/tasks/{id}", http.StatusNotFound, start)
		return
	}
	span.SetAttributes(attribute.Int64("task.id", id))

	var req model.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		respondError(w, http.StatusBadRequest, "invalid request body")
		recordMetrics(ctx, h.metrics, "PUT", "/api/tasks/{id}", http.StatusBadRequest, start)
		return
	}

	task, err := h.repo.Update(ctx, caller.UserID, id, &req)
	if err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			h.logger.WarnContext(ctx, "task not found", slog.Int64("id", id))
			respondError(w, http.StatusNotFound, err.Error())
			recordMetrics(ctx, h.metrics, "PUT", "/api/tasks/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update task", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to update task")
		recordMetrics(ctx, h.metrics, "PUT", "/api/tasks/{id}", http.StatusInternalServerError, start)
		return
	}

	h.logger.InfoContext(ctx, "task updated", slog.Int64("id", id))

	respondJSON(w, http.StatusOK, task)
	recordMetrics(ctx, h.metrics, "PUT", "/api/tasks/{id}", http.StatusOK, start)
}

// Delete removes a task the caller transitively owns.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TaskHandler.Delete")
	defer span.End()

	caller, ok := identityFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		recordMetrics(ctx, h.metrics, "DELETE", "/api/tasks/{id}", http.StatusUnauthorized, start)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, model.ErrTaskNotFound.Error())
		recordMetrics(ctx, h.metrics, "DELETE", "/api/tasks/{id}", http.StatusNotFound, start)
		return
	}
	span.SetAttributes(attribute.Int64("task.id", id))

	deleted, err := h.repo.Delete(ctx, caller.UserID, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete task", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "failed to delete task")
		recordMetrics(ctx, h.metrics, "DELETE", "/api/tasks/{id}", http.StatusInternalServerError, start)
		return
	}
	if !deleted {
		h.logger.WarnContext(ctx, "task not found", slog.Int64("id", id))
		respondError(w, http.StatusNotFound, model.ErrTaskNotFound.Error())
		recordMetrics(ctx, h.metrics, "DELETE", "/api/tasks/{id}", http.StatusNotFound, start)
		return
	}

	h.logger.InfoContext(ctx, "task deleted", slog.Int64("id", id))

	w.WriteHeader(http.StatusNoContent)
	recordMetrics(ctx, h.metrics, "DELETE", "/api/tasks/{id}", http.StatusNoContent, start)
}

// Health returns a health check response.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
