package roles

import (
	"errors"
	"time"
)

// Role represents a named permission bundle assigned to users. Permissions is
// the full, duplicate-free set of permission names the role carries.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	// ErrNotFound indicates the role does not exist.
	ErrNotFound = errors.New("roles: not found")
	// ErrDuplicate indicates the role name is already taken.
	ErrDuplicate = errors.New("roles: duplicate role")
	// ErrRoleInUse indicates users still reference the role.
	ErrRoleInUse = errors.New("roles: role in use")
	// ErrProtected indicates the reserved superadmin role may not be deleted.
	ErrProtected = errors.New("roles: role is protected")
)
