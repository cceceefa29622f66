package users

import (
	"errors"
	"time"
)

// User is a platform account together with its assigned role.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	RoleID    int64     `json:"roleId"`
	RoleName  string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrUnknownRole indicates the role to assign does not exist.
	ErrUnknownRole = errors.New("users: unknown role")
)
