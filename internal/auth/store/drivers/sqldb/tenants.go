package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

const tenantColumns = `slug, tenant_id, name, status, maintenance_active, maintenance_message, maintenance_until, created_at, updated_at`

type tenantsRepo struct{ q queries }

func (r *tenantsRepo) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	row := r.q.queryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug)

	var (
		t                  domain.Tenant
		status             string
		mActive            bool
		mMessage           sql.NullString
		mUntil             sql.NullInt64
		createdAt, updated int64
	)
	if err := row.Scan(&t.Slug, &t.TenantID, &t.Name, &status, &mActive, &mMessage, &mUntil, &createdAt, &updated); err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}

	t.Status = domain.TenantStatus(status)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updated)
	if mActive || mMessage.Valid || mUntil.Valid {
		t.Maintenance = &domain.Maintenance{
			Active:  mActive,
			Message: mapNullString(mMessage),
			Until:   mapNullMillisPtr(mUntil),
		}
	}
	return t, nil
}

func (r *tenantsRepo) Create(ctx context.Context, t domain.Tenant) error {
	active, message, until := maintenanceArgs(t.Maintenance)
	_, err := r.q.exec(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Slug, t.TenantID, t.Name, string(t.Status),
		active, message, until,
		toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	return r.q.mapWriteErr(err)
}

func (r *tenantsRepo) SetMaintenance(ctx context.Context, slug string, m *domain.Maintenance) error {
	active, message, until := maintenanceArgs(m)
	res, err := r.q.exec(ctx, `
		UPDATE tenants
		SET maintenance_active = ?, maintenance_message = ?, maintenance_until = ?, updated_at = ?
		WHERE slug = ?`,
		active, message, until, nowMillis(), slug,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func maintenanceArgs(m *domain.Maintenance) (bool, sql.NullString, sql.NullInt64) {
	if m == nil {
		return false, sql.NullString{}, sql.NullInt64{}
	}
	return m.Active, mapStringNull(m.Message), mapOptionalMillis(m.Until)
}
