package overrides

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists per-user permission overrides in PostgreSQL. The
// unique(user_id, permission_id) constraint backs the one-override-per-pair
// rule; Upsert flips the kind in place instead of inserting a second row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the override, replacing any existing row for the same
// (user, permission) pair when its kind differs. Re-writing an override of
// the same kind is skipped so the row keeps its original created_by and
// created_at; the return value reports whether anything changed.
func (r *Repository) Upsert(ctx context.Context, userID, permissionID, createdBy int64, kind Kind) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_permission_overrides (user_id, permission_id, kind, created_by, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, permission_id)
		DO UPDATE SET kind = EXCLUDED.kind, created_by = EXCLUDED.created_by, created_at = NOW()
		WHERE user_permission_overrides.kind <> EXCLUDED.kind
	`, userID, permissionID, string(kind), createdBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the override for the pair regardless of kind and reports
// whether a row was actually deleted. Removing an absent override is not an
// error.
func (r *Repository) Delete(ctx context.Context, userID, permissionID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_permission_overrides
		WHERE user_id = $1 AND permission_id = $2
	`, userID, permissionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListForUser returns the user's overrides with permission names resolved.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.user_id, o.permission_id, p.name, o.kind, o.created_by, o.created_at
		FROM user_permission_overrides o
		JOIN permissions p ON p.id = o.permission_id
		WHERE o.user_id = $1
		ORDER BY p.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		var o Override
		var kind string
		if err := rows.Scan(&o.UserID, &o.PermissionID, &o.Permission, &kind, &o.CreatedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Kind = Kind(kind)
		out = append(out, o)
	}
	return out, rows.Err()
}
