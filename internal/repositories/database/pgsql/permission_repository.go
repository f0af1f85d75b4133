package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/maika_backend/internal/apperrors"
	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPermissionRepository struct {
	BaseRepository
}

func newPgxPermissionRepository(pool *pgxpool.Pool) portsrepo.PermissionRepositoryFacade {
	return &PgxPermissionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PermissionRepositoryFacade = (*PgxPermissionRepository)(nil)

func (r *PgxPermissionRepository) queryPermissions(ctx context.Context, query string, args ...any) ([]domain.Permission, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("failed to query permissions", err)
	}
	defer rows.Close()

	out := []domain.Permission{}
	for rows.Next() {
		var (
			p    domain.Permission
			name string
		)
		if err := rows.Scan(&name, &p.EntitiesIDs, &p.EntitiesTags); err != nil {
			return nil, wrapDBError("failed to scan permission", err)
		}
		p.Name = domain.PermissionName(name)
		if len(p.EntitiesIDs) == 0 {
			p.EntitiesIDs = nil
		}
		if len(p.EntitiesTags) == 0 {
			p.EntitiesTags = nil
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating permissions", err)
	}
	return out, nil
}

// ListUserPermissions returns the direct grants of the user followed by those of its role.
func (r *PgxPermissionRepository) ListUserPermissions(ctx context.Context, userID string) ([]domain.Permission, error) {
	return r.queryPermissions(ctx, `
		SELECT permission_name, entities_ids, entities_tags FROM (
			SELECT 0 AS src, permission_name, entities_ids, entities_tags FROM user_permissions WHERE user_id = $1
			UNION ALL
			SELECT 1 AS src, rp.permission_name, rp.entities_ids, rp.entities_tags
			FROM user_roles ur JOIN role_permissions rp ON rp.role_name = ur.role_name
			WHERE ur.user_id = $1
		) grants
		ORDER BY src, permission_name`, userID)
}

func (r *PgxPermissionRepository) ListDirectUserPermissions(ctx context.Context, userID string) ([]domain.Permission, error) {
	return r.queryPermissions(ctx, `
		SELECT permission_name, entities_ids, entities_tags FROM user_permissions
		WHERE user_id = $1 ORDER BY permission_name`, userID)
}

func (r *PgxPermissionRepository) ListRolePermissions(ctx context.Context, roleName string) ([]domain.Permission, error) {
	return r.queryPermissions(ctx, `
		SELECT permission_name, entities_ids, entities_tags FROM role_permissions
		WHERE role_name = $1 ORDER BY permission_name`, roleName)
}

func insertPermissions(ctx context.Context, tx pgx.Tx, query, owner string, perms []domain.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range perms {
		ids := p.EntitiesIDs
		if ids == nil {
			ids = []int64{}
		}
		tags := p.EntitiesTags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(query, owner, string(p.Name), ids, tags)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBError("failed to insert permissions", err)
	}
	return nil
}

// ReplaceUserPermissions swaps the whole set of direct grants atomically.
func (r *PgxPermissionRepository) ReplaceUserPermissions(ctx context.Context, userID string, perms []domain.Permission) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
			return wrapDBError("failed to clear user permissions", err)
		}
		return insertPermissions(ctx, tx, `
			INSERT INTO user_permissions (user_id, permission_name, entities_ids, entities_tags)
			VALUES ($1, $2, $3, $4)`, userID, perms)
	})
}

// ReplaceRolePermissions creates the role if needed and swaps its grants atomically.
func (r *PgxPermissionRepository) ReplaceRolePermissions(ctx context.Context, roleName string, perms []domain.Permission) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO roles (role_name) VALUES ($1) ON CONFLICT DO NOTHING`, roleName); err != nil {
			return wrapDBError("failed to upsert role", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_name = $1`, roleName); err != nil {
			return wrapDBError("failed to clear role permissions", err)
		}
		return insertPermissions(ctx, tx, `
			INSERT INTO role_permissions (role_name, permission_name, entities_ids, entities_tags)
			VALUES ($1, $2, $3, $4)`, roleName, perms)
	})
}

func (r *PgxPermissionRepository) AssignUserRole(ctx context.Context, userID, roleName string) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_name) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role_name = EXCLUDED.role_name`, userID, roleName)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return apperrors.NewNotFoundError(fmt.Sprintf("role %q", roleName))
		}
		return wrapDBError("failed to assign role", err)
	}
	return nil
}
