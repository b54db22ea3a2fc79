package sqldb

import (
	"context"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

type rolesRepo struct{ q queries }

func (r *rolesRepo) GetByID(ctx context.Context, id string) (domain.Role, error) {
	row := r.q.queryRow(ctx, `
		SELECT id, tenant_id, name, can_vote, kitchen_view, kitchen_manage, is_admin, created_at, updated_at
		FROM roles WHERE id = ?`, id)

	var (
		role                 domain.Role
		createdAt, updatedAt int64
	)
	p := &role.Permissions
	if err := row.Scan(&role.ID, &role.TenantID, &role.Name,
		&p.CanVote, &p.KitchenView, &p.KitchenManage, &p.IsAdmin,
		&createdAt, &updatedAt); err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.CreatedAt = fromMillis(createdAt)
	role.UpdatedAt = fromMillis(updatedAt)
	return role, nil
}

func (r *rolesRepo) Create(ctx context.Context, role domain.Role) error {
	p := role.Permissions
	_, err := r.q.exec(ctx, `
		INSERT INTO roles (id, tenant_id, name, can_vote, kitchen_view, kitchen_manage, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		role.ID, role.TenantID, role.Name,
		p.CanVote, p.KitchenView, p.KitchenManage, p.IsAdmin,
		toMillis(role.CreatedAt), toMillis(role.UpdatedAt),
	)
	return r.q.mapWriteErr(err)
}

func (r *rolesRepo) UpdatePermissions(ctx context.Context, roleID string, p domain.PermissionSet) error {
	res, err := r.q.exec(ctx, `
		UPDATE roles
		SET can_vote = ?, kitchen_view = ?, kitchen_manage = ?, is_admin = ?, updated_at = ?
		WHERE id = ?`,
		p.CanVote, p.KitchenView, p.KitchenManage, p.IsAdmin, nowMillis(), roleID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
