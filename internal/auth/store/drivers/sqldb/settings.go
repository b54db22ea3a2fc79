package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

// system_settings holds a single row with id 1.
type settingsRepo struct{ q queries }

func (r *settingsRepo) GetMaintenance(ctx context.Context) (*domain.Maintenance, error) {
	row := r.q.queryRow(ctx, `
		SELECT maintenance_active, maintenance_message, maintenance_until
		FROM system_settings WHERE id = 1`)

	var (
		active  bool
		message sql.NullString
		until   sql.NullInt64
	)
	if err := row.Scan(&active, &message, &until); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Maintenance{
		Active:  active,
		Message: mapNullString(message),
		Until:   mapNullMillisPtr(until),
	}, nil
}

func (r *settingsRepo) SetMaintenance(ctx context.Context, m *domain.Maintenance) error {
	active, message, until := maintenanceArgs(m)
	_, err := r.q.exec(ctx, `
		INSERT INTO system_settings (id, maintenance_active, maintenance_message, maintenance_until, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			maintenance_active = excluded.maintenance_active,
			maintenance_message = excluded.maintenance_message,
			maintenance_until = excluded.maintenance_until,
			updated_at = excluded.updated_at`,
		active, message, until, nowMillis(),
	)
	return err
}
