package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrUnavailable   = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx can hand out the same repos bound to the transaction.
type Store interface {
	Tenants() Tenants
	Users() Users
	Roles() Roles
	Settings() Settings
	LoginAttempts() LoginAttempts
	LoginLocks() LoginLocks
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Tenants interface {
	// GetBySlug returns the tenant with the normalized slug.
	GetBySlug(ctx context.Context, slug string) (domain.Tenant, error)

	// Create inserts a tenant. Provisioning lives elsewhere; this exists for
	// seeding and tests.
	Create(ctx context.Context, t domain.Tenant) error

	// SetMaintenance replaces the tenant's maintenance flag. Nil clears it.
	SetMaintenance(ctx context.Context, slug string, m *domain.Maintenance) error
}

type Users interface {
	GetByID(ctx context.Context, id string) (domain.User, error)

	// FindByIdentity finds a user of tenantID by identity number or phone.
	FindByIdentity(ctx context.Context, tenantID, identity string) (domain.User, error)

	// ListMemberships returns every tenant the identity number has an account in.
	ListMemberships(ctx context.Context, identityNumber string) ([]domain.Membership, error)

	Create(ctx context.Context, u domain.User) error

	// UpdateRole changes the legacy role and the structured role reference.
	UpdateRole(ctx context.Context, userID, role, roleID string) error
}

type Roles interface {
	GetByID(ctx context.Context, id string) (domain.Role, error)
	Create(ctx context.Context, r domain.Role) error
	UpdatePermissions(ctx context.Context, roleID string, p domain.PermissionSet) error
}

type Settings interface {
	// GetMaintenance returns the platform-wide maintenance flag. A missing
	// row is reported as nil, not ErrNotFound.
	GetMaintenance(ctx context.Context) (*domain.Maintenance, error)
	SetMaintenance(ctx context.Context, m *domain.Maintenance) error
}

type LoginAttempts interface {
	Insert(ctx context.Context, a domain.LoginAttempt) error

	// CountFailuresSince counts failures of the pair that count toward the
	// lockout threshold, created at or after since.
	CountFailuresSince(ctx context.Context, identityNumber, tenantSlug string, since time.Time) (int, error)

	// AggregateFailures groups counted failures since a point in time. An
	// empty tenantSlug aggregates across tenants. Groups are ordered by
	// failure count, highest first, and capped at limit.
	AggregateFailures(ctx context.Context, q FailureQuery) ([]domain.FailureGroup, error)
}

// FailureQuery parameterizes AggregateFailures.
type FailureQuery struct {
	Since      time.Time
	GroupBy    domain.FailureGroupBy
	TenantSlug string
	Limit      int
}

type LoginLocks interface {
	// Get returns the lock row for the pair, expired or not.
	Get(ctx context.Context, identityNumber, tenantSlug string) (domain.LoginLock, error)

	// Upsert creates or overwrites the lock for the pair.
	Upsert(ctx context.Context, l domain.LoginLock) error

	// Delete removes the lock. Deleting a missing lock is not an error.
	Delete(ctx context.Context, identityNumber, tenantSlug string) error
}

type Audit interface {
	Insert(ctx context.Context, entries ...domain.AuditEntry) error

	// ListRecent returns the newest entries first. Empty tenantID lists all.
	ListRecent(ctx context.Context, tenantID string, limit int) ([]domain.AuditEntry, error)
}
