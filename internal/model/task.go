package model

import (
	"strings"
	"time"
)

// Task is a unit of work inside a project. Its effective owner is the owner
// of its parent project; ownership is never stored on the task itself.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"projectId"`
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateTaskRequest represents the request body for creating a task.
// ProjectID is optional; when set it must match the project id in the route.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"dueDate"`
	ProjectID   int64      `json:"projectId"`
	IsCompleted bool       `json:"isCompleted"`
}

// Validate checks if the CreateTaskRequest is valid.
func (r *CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTaskTitleRequired
	}
	return nil
}

// UpdateTaskRequest represents the request body for updating a task.
// An empty title and an absent due date leave the stored values unchanged;
// IsCompleted always overwrites the stored flag.
type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
}
