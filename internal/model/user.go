package model

import "unicode/utf8"

// User represents a registered account.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks if the RegisterRequest is valid.
func (r *RegisterRequest) Validate() error {
	if n := utf8.RuneCountInString(r.Username); n < 3 || n > 100 {
		return ErrUsernameLength
	}
	if n := utf8.RuneCountInString(r.Password); n < 6 || n > 100 {
		return ErrPasswordLength
	}
	return nil
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
