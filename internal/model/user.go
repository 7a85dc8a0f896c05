// Package model defines transport shapes exchanged with the backend API.
package model

import (
	"time"
)

// UserRole represents the role of an authenticated user.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is the authenticated identity held client-side after login.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// LoginRequest is the request to exchange credentials for a token.
// The backend reads the plaintext password from the password_hash
// field; no hashing happens on this side of the wire.
type LoginRequest struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// LoginResponse carries the bearer token returned on login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// RegisterRequest is the request to create a new identity.
type RegisterRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// CreateUserRequest is the admin request to create a user directly.
type CreateUserRequest struct {
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"password_hash"`
	Role         UserRole `json:"role,omitempty"`
}

// UpdateUserRequest is the admin request to update a user.
type UpdateUserRequest struct {
	Name string   `json:"name,omitempty"`
	Role UserRole `json:"role,omitempty"`
}
