package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Role         string     `json:"role"`
	LocationID   *int64     `json:"location_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// UserRef is the trimmed user shape embedded in ledger views.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the body an administrator sends to open an account.
type CreateUserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	LocationID *int64 `json:"location_id,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// UpdateUserRequest carries the fields an administrator may change. Password
// is only decoded so it can be refused.
type UpdateUserRequest struct {
	Username   *string `json:"username,omitempty"`
	Email      *string `json:"email,omitempty"`
	Role       *string `json:"role,omitempty"`
	LocationID *int64  `json:"location_id,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Password   *string `json:"password,omitempty"`
}

type UpdateProfileRequest struct {
	Email *string `json:"email,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

const (
	RoleAdmin      = "admin"
	RoleCommander  = "commander"
	RoleLogistics  = "logistics"
	RoleUnitLeader = "unit_leader"
)

// ValidRoles defines the available roles in the system
var ValidRoles = []string{
	RoleAdmin,
	RoleCommander,
	RoleLogistics,
	RoleUnitLeader,
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	for _, validRole := range ValidRoles {
		if role == validRole {
			return true
		}
	}
	return false
}

// RequiresLocation reports whether the role must be bound to a home location.
func RequiresLocation(role string) bool {
	return role != RoleAdmin
}

// Ref returns the trimmed form used inside ledger views.
func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// Redacted returns a copy of the user with sensitive fields removed
func (u *User) Redacted() User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		LocationID:  u.LocationID,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
