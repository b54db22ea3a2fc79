package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

const userColumns = `id, tenant_id, identity_number, phone, full_name, email, password_hash, is_active, role, role_id, created_at, updated_at`

type usersRepo struct{ q queries }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                    domain.User
		phone, email, roleID sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&u.ID, &u.TenantID, &u.IdentityNumber, &phone, &u.FullName, &email,
		&u.PasswordHash, &u.IsActive, &u.Role, &roleID, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Phone = mapNullString(phone)
	u.Email = mapNullString(email)
	u.RoleID = mapNullString(roleID)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	return u, mapNotFound(err)
}

// FindByIdentity prefers an identity number match over a phone match.
func (r *usersRepo) FindByIdentity(ctx context.Context, tenantID, identity string) (domain.User, error) {
	row := r.q.queryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE tenant_id = ? AND (identity_number = ? OR phone = ?)
		ORDER BY CASE WHEN identity_number = ? THEN 0 ELSE 1 END
		LIMIT 1`,
		tenantID, identity, identity, identity,
	)
	u, err := scanUser(row)
	return u, mapNotFound(err)
}

func (r *usersRepo) ListMemberships(ctx context.Context, identityNumber string) ([]domain.Membership, error) {
	rows, err := r.q.query(ctx, `
		SELECT u.id, u.tenant_id, COALESCE(t.slug, u.tenant_id), u.role
		FROM users u
		LEFT JOIN tenants t ON t.tenant_id = u.tenant_id
		WHERE u.identity_number = ? AND u.is_active = ?
		ORDER BY u.tenant_id`,
		identityNumber, true,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.TenantSlug, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	role := u.Role
	if role == "" {
		role = domain.RoleMember
	}
	_, err := r.q.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.TenantID, u.IdentityNumber, mapStringNull(u.Phone), u.FullName, mapStringNull(u.Email),
		u.PasswordHash, u.IsActive, role, mapStringNull(u.RoleID),
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return r.q.mapWriteErr(err)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID, role, roleID string) error {
	res, err := r.q.exec(ctx, `
		UPDATE users SET role = ?, role_id = ?, updated_at = ? WHERE id = ?`,
		role, mapStringNull(roleID), nowMillis(), userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
