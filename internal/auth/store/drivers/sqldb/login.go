package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
)

// Failures with these reasons are kept for the record but never count.
// Keep in step with domain.FailureReason.CountsTowardLockout.
const notCounted = `COALESCE(reason, '') NOT IN ('locked', 'maintenance', 'degraded', '')`

type loginAttemptsRepo struct{ q queries }

func (r *loginAttemptsRepo) Insert(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO login_attempts (id, identity_number, tenant_slug, success, reason, ip, is_master, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.IdentityNumber, a.TenantSlug, a.Success, mapStringNull(string(a.Reason)),
		a.IP, a.IsMaster, toMillis(a.CreatedAt),
	)
	return r.q.mapWriteErr(err)
}

func (r *loginAttemptsRepo) CountFailuresSince(ctx context.Context, identityNumber, tenantSlug string, since time.Time) (int, error) {
	var n int
	err := r.q.queryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE identity_number = ? AND tenant_slug = ? AND success = ?
		  AND created_at >= ? AND `+notCounted,
		identityNumber, tenantSlug, false, toMillis(since),
	).Scan(&n)
	return n, err
}

func (r *loginAttemptsRepo) AggregateFailures(ctx context.Context, fq store.FailureQuery) ([]domain.FailureGroup, error) {
	var (
		keyCol, tenantCol, groupBy string
		where                      = []string{`success = ?`, `created_at >= ?`, notCounted}
		args                       = []any{false, toMillis(fq.Since)}
	)

	switch fq.GroupBy {
	case domain.GroupByIdentity, "":
		keyCol, tenantCol, groupBy = "identity_number", "tenant_slug", "identity_number, tenant_slug"
	case domain.GroupByIP:
		keyCol, tenantCol, groupBy = "ip", "''", "ip"
		where = append(where, `ip <> ''`)
	default:
		return nil, fmt.Errorf("sqldb: unknown failure grouping %q", fq.GroupBy)
	}

	if fq.TenantSlug != "" {
		where = append(where, `tenant_slug = ?`)
		args = append(args, fq.TenantSlug)
	}

	limit := fq.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := r.q.query(ctx, fmt.Sprintf(`
		SELECT %s, %s, COUNT(*), MAX(created_at)
		FROM login_attempts
		WHERE %s
		GROUP BY %s
		ORDER BY COUNT(*) DESC, MAX(created_at) DESC
		LIMIT ?`, keyCol, tenantCol, strings.Join(where, " AND "), groupBy), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FailureGroup
	for rows.Next() {
		var (
			g    domain.FailureGroup
			last int64
		)
		if err := rows.Scan(&g.Key, &g.TenantSlug, &g.Failures, &last); err != nil {
			return nil, err
		}
		g.LastAttempt = fromMillis(last)
		if g.TenantSlug == "" {
			g.TenantSlug = fq.TenantSlug
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type loginLocksRepo struct{ q queries }

func (r *loginLocksRepo) Get(ctx context.Context, identityNumber, tenantSlug string) (domain.LoginLock, error) {
	l := domain.LoginLock{IdentityNumber: identityNumber, TenantSlug: tenantSlug}
	var until, createdAt int64
	err := r.q.queryRow(ctx, `
		SELECT locked_until, created_at FROM login_locks
		WHERE identity_number = ? AND tenant_slug = ?`,
		identityNumber, tenantSlug,
	).Scan(&until, &createdAt)
	if err != nil {
		return domain.LoginLock{}, mapNotFound(err)
	}
	l.Until = fromMillis(until)
	l.CreatedAt = fromMillis(createdAt)
	return l, nil
}

func (r *loginLocksRepo) Upsert(ctx context.Context, l domain.LoginLock) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO login_locks (identity_number, tenant_slug, locked_until, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (identity_number, tenant_slug) DO UPDATE SET
			locked_until = excluded.locked_until,
			created_at = excluded.created_at`,
		l.IdentityNumber, l.TenantSlug, toMillis(l.Until), toMillis(l.CreatedAt),
	)
	return err
}

func (r *loginLocksRepo) Delete(ctx context.Context, identityNumber, tenantSlug string) error {
	_, err := r.q.exec(ctx, `
		DELETE FROM login_locks WHERE identity_number = ? AND tenant_slug = ?`,
		identityNumber, tenantSlug,
	)
	return err
}
