// Package postgres is the store driver for PostgreSQL, reached through the
// pgx database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/store/drivers/sqldb"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const codeUniqueViolation = "23505"

// Dialect is the sqldb dialect for PostgreSQL.
var Dialect = sqldb.Dialect{
	Name:              "postgres",
	Placeholder:       sqldb.Dollar,
	IsUniqueViolation: isUniqueViolation,
}

type Store struct {
	*sqldb.Store
}

// PoolConfig tunes the connection pool. Zero values keep the defaults.
type PoolConfig struct {
	MaxOpenConns    int           `koanf:"maxopenconns"`
	MaxIdleConns    int           `koanf:"maxidleconns"`
	ConnMaxLifetime time.Duration `koanf:"connmaxlifetime"`
}

var DefaultPool = PoolConfig{
	MaxOpenConns:    20,
	MaxIdleConns:    10,
	ConnMaxLifetime: 15 * time.Minute,
}

// NewStore opens a pool against dsn and checks it is reachable.
func NewStore(ctx context.Context, dsn string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns == 0 {
		pool.MaxOpenConns = DefaultPool.MaxOpenConns
	}
	if pool.MaxIdleConns == 0 {
		pool.MaxIdleConns = DefaultPool.MaxIdleConns
	}
	if pool.ConnMaxLifetime == 0 {
		pool.ConnMaxLifetime = DefaultPool.ConnMaxLifetime
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewFromDB(db), nil
}

// NewFromDB wraps an already opened handle.
func NewFromDB(db *sql.DB) *Store {
	return &Store{Store: sqldb.New(db, Dialect)}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
