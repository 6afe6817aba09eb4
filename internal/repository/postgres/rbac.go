package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
)

const roleColumns = "id, name, description, office_id, created_at, updated_at"

type rbacRepository struct {
	BaseRepository
}

func NewRBACRepository(base BaseRepository) repository.RBACRepository {
	return &rbacRepository{base}
}

func (r *rbacRepository) CreateRole(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	query := `
		INSERT INTO roles (id, name, description, office_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	role.ID = uuid.New()
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			role.ID,
			role.Name,
			role.Description,
			role.OfficeID,
			role.CreatedAt,
			role.UpdatedAt,
		)
		if err != nil {
			return translate(err, "failed to create role")
		}
		_, err = insertRolePermissions(ctx, tx, role.ID, permissionIDs)
		return err
	})
}

func (r *rbacRepository) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	var role model.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		return nil, translate(err, "failed to get role")
	}
	return &role, nil
}

func (r *rbacRepository) GetRoleByName(ctx context.Context, name string, officeID *uuid.UUID) (*model.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE lower(name) = lower($1) AND office_id IS NOT DISTINCT FROM $2::uuid
	`
	var role model.Role
	if err := r.db.GetContext(ctx, &role, query, name, officeID); err != nil {
		return nil, translate(err, "failed to get role by name")
	}
	return &role, nil
}

func (r *rbacRepository) UpdateRole(ctx context.Context, role *model.Role, resolve repository.PermissionResolver) (int, error) {
	var assigned int
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var locked model.Role
		lock := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &locked, lock, role.ID); err != nil {
			return translate(err, "failed to lock role")
		}

		query := `
			UPDATE roles
			SET name = $1, description = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING ` + roleColumns
		if err := tx.GetContext(ctx, role, query, role.Name, role.Description, role.ID); err != nil {
			return translate(err, "failed to update role")
		}

		if resolve == nil {
			return nil
		}
		ids, err := resolve(role)
		if err != nil {
			return err
		}
		assigned, err = replaceRolePermissions(ctx, tx, role.ID, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

func (r *rbacRepository) ListRoles(ctx context.Context, filter model.RoleFilter) ([]*model.Role, error) {
	stmt := applyRoleFilter(
		sq.Select(roleColumns).From("roles").PlaceholderFormat(sq.Dollar),
		filter,
	).OrderBy("office_id NULLS FIRST", "lower(name)")

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build roles query: %w", err)
	}

	var roles []*model.Role
	if err := r.db.SelectContext(ctx, &roles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func applyRoleFilter(stmt sq.SelectBuilder, f model.RoleFilter) sq.SelectBuilder {
	switch {
	case f.GlobalOnly:
		stmt = stmt.Where(sq.Eq{"office_id": nil})
	case f.OfficeID != nil:
		if f.IncludeGlobal {
			stmt = stmt.Where(sq.Or{sq.Eq{"office_id": *f.OfficeID}, sq.Eq{"office_id": nil}})
		} else {
			stmt = stmt.Where(sq.Eq{"office_id": *f.OfficeID})
		}
	}
	if f.Search != "" {
		stmt = stmt.Where(sq.ILike{"name": "%" + f.Search + "%"})
	}
	return stmt
}

func (r *rbacRepository) EnsureGlobalRole(ctx context.Context, role *model.Role) (*model.Role, bool, error) {
	query := `
		INSERT INTO roles (id, name, description, office_id, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, NOW(), NOW())
		ON CONFLICT (lower(name), COALESCE(office_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO NOTHING
		RETURNING ` + roleColumns

	var created model.Role
	err := r.db.GetContext(ctx, &created, query, uuid.New(), role.Name, role.Description)
	if err == nil {
		return &created, true, nil
	}
	if err = translate(err, "failed to ensure role"); !isNotFound(err) {
		return nil, false, err
	}

	existing, err := r.GetRoleByName(ctx, role.Name, nil)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *rbacRepository) ReplaceRolePermissions(ctx context.Context, roleID uuid.UUID, resolve repository.PermissionResolver) (int, error) {
	var assigned int
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var role model.Role
		lock := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &role, lock, roleID); err != nil {
			return translate(err, "failed to lock role")
		}

		ids, err := resolve(&role)
		if err != nil {
			return err
		}
		if assigned, err = replaceRolePermissions(ctx, tx, roleID, ids); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE roles SET updated_at = NOW() WHERE id = $1`, roleID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

// replaceRolePermissions swaps the set inside tx; the caller holds the role lock.
func replaceRolePermissions(ctx context.Context, tx *sqlx.Tx, roleID uuid.UUID, ids []uuid.UUID) (int, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return 0, fmt.Errorf("failed to clear role permissions: %w", err)
	}
	return insertRolePermissions(ctx, tx, roleID, ids)
}

func insertRolePermissions(ctx context.Context, tx *sqlx.Tx, roleID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, roleID, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("failed to assign permissions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *rbacRepository) GetRolePermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	query := `
		SELECT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, roleID); err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	return names, nil
}

func (r *rbacRepository) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	query := `SELECT id, name, description, created_at FROM permissions ORDER BY name`

	var permissions []*model.Permission
	if err := r.db.SelectContext(ctx, &permissions, query); err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}

func (r *rbacRepository) GetPermissionsByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, name, description, created_at
		FROM permissions
		WHERE id = ANY($1::uuid[])
		ORDER BY name
	`
	var permissions []*model.Permission
	if err := r.db.SelectContext(ctx, &permissions, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	return permissions, nil
}

func (r *rbacRepository) UpsertPermissions(ctx context.Context, permissions []*model.Permission) error {
	query := `
		INSERT INTO permissions (id, name, description, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, created_at
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, p := range permissions {
			if p.ID == uuid.Nil {
				p.ID = uuid.New()
			}
			row := tx.QueryRowxContext(ctx, query, p.ID, p.Name, p.Description)
			if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
				return fmt.Errorf("failed to upsert permission %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
