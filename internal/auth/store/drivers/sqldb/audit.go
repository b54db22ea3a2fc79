package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

type auditRepo struct{ q queries }

func (r *auditRepo) Insert(ctx context.Context, entries ...domain.AuditEntry) error {
	for _, e := range entries {
		meta, err := encodeMeta(e.Meta)
		if err != nil {
			return err
		}
		_, err = r.q.exec(ctx, `
			INSERT INTO audit_log (id, tenant_id, action, entity, actor_id, actor_name, target_name, meta, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, mapStringNull(e.TenantID), string(e.Action), e.Entity,
			mapStringNull(e.ActorID), mapStringNull(e.ActorName), mapStringNull(e.TargetName),
			meta, toMillis(e.CreatedAt),
		)
		if err != nil {
			return r.q.mapWriteErr(err)
		}
	}
	return nil
}

func (r *auditRepo) ListRecent(ctx context.Context, tenantID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, tenant_id, action, entity, actor_id, actor_name, target_name, meta, created_at FROM audit_log`
	args := []any{}
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e                              domain.AuditEntry
			tenant, actorID, actor, target sql.NullString
			action                         string
			meta                           sql.NullString
			createdAt                      int64
		)
		if err := rows.Scan(&e.ID, &tenant, &action, &e.Entity, &actorID, &actor, &target, &meta, &createdAt); err != nil {
			return nil, err
		}
		e.TenantID = mapNullString(tenant)
		e.Action = domain.AuditAction(action)
		e.ActorID = mapNullString(actorID)
		e.ActorName = mapNullString(actor)
		e.TargetName = mapNullString(target)
		e.CreatedAt = fromMillis(createdAt)
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &e.Meta); err != nil {
				return nil, fmt.Errorf("sqldb: decode audit meta %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeMeta(meta map[string]any) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqldb: encode audit meta: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
