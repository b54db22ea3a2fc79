// Package sqldb holds the repositories shared by the SQL drivers. Queries
// are written with ? placeholders and rebound per dialect.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/store"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Placeholder is the bind parameter style of a database.
type Placeholder int

const (
	Question Placeholder = iota // ?
	Dollar                      // $1, $2, ...
)

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name        string
	Placeholder Placeholder

	// IsUniqueViolation recognizes the driver's unique constraint error.
	IsUniqueViolation func(error) bool
}

// Rebind rewrites ? placeholders into the dialect's style. Queries never
// contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d.Placeholder != Dollar {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type queries struct {
	db DBTX
	d  Dialect
}

func (q queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.d.Rebind(query), args...)
}

func (q queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.d.Rebind(query), args...)
}

func (q queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.d.Rebind(query), args...)
}

func (q queries) mapWriteErr(err error) error {
	if err != nil && q.d.IsUniqueViolation != nil && q.d.IsUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullMillisPtr(n sql.NullInt64) *time.Time {
	if n.Valid {
		t := fromMillis(n.Int64)
		return &t
	}
	return nil
}

func mapOptionalMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

// nowMillis stamps updated_at on writes that carry no timestamp of their own.
func nowMillis() int64 { return toMillis(time.Now()) }
