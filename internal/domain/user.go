package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User represents a system user
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Active       bool

	// ResetTokenHash is the SHA-256 of the pending password reset token.
	ResetTokenHash string
	ResetExpiresAt *time.Time
}

// Sanitized returns a copy of u without credentials.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.ResetTokenHash = ""
	c.ResetExpiresAt = nil
	return &c
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator can create and view transactions, but cannot manage accounts
	RoleOperator Role = "operator"

	// RoleViewer can only view resources, no mutations
	RoleViewer Role = "viewer"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleViewer:   true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanCreate checks if the role can create resources
func (r Role) CanCreate() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanApprove checks if the role can approve or reject pending transactions
func (r Role) CanApprove() bool {
	return r == RoleAdmin
}

// CanViewAll checks if the role can view all resources
func (r Role) CanViewAll() bool {
	// All authenticated users can view
	return r.IsValid()
}

// ParseRole normalizes and checks a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", &ValidationError{Fields: []FieldError{{Field: "role", Message: "must be one of: admin, operator, viewer"}}}
	}
	return r, nil
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

// SystemUser acts on behalf of the service when authentication is disabled.
var SystemUser = &User{ID: "system", Name: "system", Role: RoleAdmin, Active: true}

type userContextKey struct{}

// ContextWithUser returns a copy of ctx carrying user.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the acting user from ctx.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}
