package overrides

import (
	"errors"
	"time"
)

// Kind distinguishes the two override effects. A GRANT adds a permission on
// top of the user's role; a BLOCK removes one regardless of the role.
type Kind string

const (
	KindGrant Kind = "GRANT"
	KindBlock Kind = "BLOCK"
)

// Override is a per-user exception to role-derived permissions. A user holds
// at most one override per permission, so a grant and a block for the same
// permission can never coexist.
type Override struct {
	UserID       int64     `json:"userId"`
	PermissionID int64     `json:"-"`
	Permission   string    `json:"permission"`
	Kind         Kind      `json:"kind"`
	CreatedBy    int64     `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

var (
	// ErrUserNotFound indicates the target user does not exist or is inactive.
	ErrUserNotFound = errors.New("overrides: user not found")
)
