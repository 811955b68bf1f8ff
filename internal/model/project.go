package model

import (
	"time"
	"unicode/utf8"
)

// Project is a collection of tasks owned by exactly one user.
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	OwnerID     int64     `json:"-"`
}

// CreateProjectRequest represents the request body for creating a project.
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks if the CreateProjectRequest is valid.
func (r *CreateProjectRequest) Validate() error {
	if n := utf8.RuneCountInString(r.Title); n < 3 || n > 100 {
		return ErrProjectTitleLength
	}
	if utf8.RuneCountInString(r.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}
