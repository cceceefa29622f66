package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLRepository provides PostgreSQL backed snapshot loading.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

// PrincipalByUserID assembles the authorization snapshot for a user: role,
// role permission set, and per-user overrides. Deactivated users resolve to
// ErrNotFound so they deny as unauthenticated.
func (r *SQLRepository) PrincipalByUserID(ctx context.Context, userID int64) (*Principal, error) {
	p := Principal{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT u.role_id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1 AND u.is_active`, userID).Scan(&p.RoleID, &p.RoleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("authz: load user %d: %w", userID, err)
	}

	p.RolePermissions, err = r.rolePermissions(ctx, p.RoleID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.name, o.kind
		FROM user_permission_overrides o
		JOIN permissions p ON p.id = o.permission_id
		WHERE o.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("authz: load overrides for user %d: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		switch kind {
		case "GRANT":
			p.Grants = append(p.Grants, name)
		case "BLOCK":
			p.Blocks = append(p.Blocks, name)
		default:
			return nil, fmt.Errorf("authz: override for user %d has unknown kind %q", userID, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) rolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("authz: load permissions for role %d: %w", roleID, err)
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}
