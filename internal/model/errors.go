package model

// Error represents a domain error.
type Error struct {
	Message string
}

func (e Error) Error() string {
	return e.Message
}

var (
	// Authentication failures. ErrInvalidCredentials is deliberately the same
	// for an unknown username and a wrong password, so callers cannot probe
	// which usernames exist.
	ErrInvalidCredentials = Error{Message: "invalid credentials"}
	ErrDuplicateUsername  = Error{Message: "username already exists"}
	ErrTokenExpired       = Error{Message: "token expired"}
	ErrTokenInvalid       = Error{Message: "invalid token"}

	// Validation failures.
	ErrUsernameLength     = Error{Message: "username must be between 3 and 100 characters"}
	ErrPasswordLength     = Error{Message: "password must be between 6 and 100 characters"}
	ErrProjectTitleLength = Error{Message: "project title must be between 3 and 100 characters"}
	ErrDescriptionTooLong = Error{Message: "project description must be at most 500 characters"}
	ErrTaskTitleRequired  = Error{Message: "task title is required"}

	// Ownership-gated lookups: a record owned by someone else is reported
	// exactly like a record that does not exist.
	ErrProjectNotFound = Error{Message: "project not found or access denied"}
	ErrTaskNotFound    = Error{Message: "task not found or access denied"}
	ErrUserNotFound    = Error{Message: "user not found"}
)
