package sqldb

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/mealvote/internal/auth/store"
)

// Store implements every store.Store method except ApplyMigrations, which
// each driver adds with its own embedded migrations.
type Store struct {
	db *sql.DB
	q  queries
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, q: queries{db: db, d: d}}
}

// DB exposes the handle for drivers and migrations.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, q: queries{db: tx, d: s.q.d}}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Tenants() store.Tenants             { return &tenantsRepo{q: s.q} }
func (s *Store) Users() store.Users                 { return &usersRepo{q: s.q} }
func (s *Store) Roles() store.Roles                 { return &rolesRepo{q: s.q} }
func (s *Store) Settings() store.Settings           { return &settingsRepo{q: s.q} }
func (s *Store) LoginAttempts() store.LoginAttempts { return &loginAttemptsRepo{q: s.q} }
func (s *Store) LoginLocks() store.LoginLocks       { return &loginLocksRepo{q: s.q} }
func (s *Store) Audit() store.Audit                 { return &auditRepo{q: s.q} }

type txStore struct {
	tx *sql.Tx
	q  queries
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op for transactions; the connection is already held.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx

func (t *txStore) Tenants() store.Tenants             { return &tenantsRepo{q: t.q} }
func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.q} }
func (t *txStore) Roles() store.Roles                 { return &rolesRepo{q: t.q} }
func (t *txStore) Settings() store.Settings           { return &settingsRepo{q: t.q} }
func (t *txStore) LoginAttempts() store.LoginAttempts { return &loginAttemptsRepo{q: t.q} }
func (t *txStore) LoginLocks() store.LoginLocks       { return &loginLocksRepo{q: t.q} }
func (t *txStore) Audit() store.Audit                 { return &auditRepo{q: t.q} }
