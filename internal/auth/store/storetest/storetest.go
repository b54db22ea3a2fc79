// Package storetest provides a migrated in-memory store for tests, with a
// switch to simulate the database going away.
package storetest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

// Store wraps a sqlite :memory: store. While down, every call fails with
// store.ErrUnavailable.
type Store struct {
	store.Store

	down      atomic.Bool
	roleReads atomic.Int64
}

var _ store.Store = (*Store)(nil)

func New(t testing.TB) *Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return &Store{Store: s}
}

// SetDown toggles simulated unavailability.
func (s *Store) SetDown(down bool) { s.down.Store(down) }

// RoleReads counts Roles().GetByID calls that reached the database.
func (s *Store) RoleReads() int { return int(s.roleReads.Load()) }

func (s *Store) check() error {
	if s.down.Load() {
		return store.ErrUnavailable
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.Ping(ctx)
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.Store.Tx(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.Store.WithTx(ctx, fn)
}

func (s *Store) Tenants() store.Tenants             { return tenants{s.Store.Tenants(), s} }
func (s *Store) Users() store.Users                 { return users{s.Store.Users(), s} }
func (s *Store) Roles() store.Roles                 { return roles{s.Store.Roles(), s} }
func (s *Store) Settings() store.Settings           { return settings{s.Store.Settings(), s} }
func (s *Store) LoginAttempts() store.LoginAttempts { return attempts{s.Store.LoginAttempts(), s} }
func (s *Store) LoginLocks() store.LoginLocks       { return locks{s.Store.LoginLocks(), s} }
func (s *Store) Audit() store.Audit                 { return audit{s.Store.Audit(), s} }

type tenants struct {
	store.Tenants
	s *Store
}

func (r tenants) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	if err := r.s.check(); err != nil {
		return domain.Tenant{}, err
	}
	return r.Tenants.GetBySlug(ctx, slug)
}

func (r tenants) Create(ctx context.Context, t domain.Tenant) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Tenants.Create(ctx, t)
}

func (r tenants) SetMaintenance(ctx context.Context, slug string, m *domain.Maintenance) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Tenants.SetMaintenance(ctx, slug, m)
}

type users struct {
	store.Users
	s *Store
}

func (r users) GetByID(ctx context.Context, id string) (domain.User, error) {
	if err := r.s.check(); err != nil {
		return domain.User{}, err
	}
	return r.Users.GetByID(ctx, id)
}

func (r users) FindByIdentity(ctx context.Context, tenantID, identity string) (domain.User, error) {
	if err := r.s.check(); err != nil {
		return domain.User{}, err
	}
	return r.Users.FindByIdentity(ctx, tenantID, identity)
}

func (r users) ListMemberships(ctx context.Context, identityNumber string) ([]domain.Membership, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}
	return r.Users.ListMemberships(ctx, identityNumber)
}

func (r users) Create(ctx context.Context, u domain.User) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Users.Create(ctx, u)
}

func (r users) UpdateRole(ctx context.Context, userID, role, roleID string) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Users.UpdateRole(ctx, userID, role, roleID)
}

type roles struct {
	store.Roles
	s *Store
}

func (r roles) GetByID(ctx context.Context, id string) (domain.Role, error) {
	if err := r.s.check(); err != nil {
		return domain.Role{}, err
	}
	r.s.roleReads.Add(1)
	return r.Roles.GetByID(ctx, id)
}

func (r roles) Create(ctx context.Context, role domain.Role) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Roles.Create(ctx, role)
}

func (r roles) UpdatePermissions(ctx context.Context, roleID string, p domain.PermissionSet) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Roles.UpdatePermissions(ctx, roleID, p)
}

type settings struct {
	store.Settings
	s *Store
}

func (r settings) GetMaintenance(ctx context.Context) (*domain.Maintenance, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}
	return r.Settings.GetMaintenance(ctx)
}

func (r settings) SetMaintenance(ctx context.Context, m *domain.Maintenance) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Settings.SetMaintenance(ctx, m)
}

type attempts struct {
	store.LoginAttempts
	s *Store
}

func (r attempts) Insert(ctx context.Context, a domain.LoginAttempt) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.LoginAttempts.Insert(ctx, a)
}

func (r attempts) CountFailuresSince(ctx context.Context, identityNumber, tenantSlug string, since time.Time) (int, error) {
	if err := r.s.check(); err != nil {
		return 0, err
	}
	return r.LoginAttempts.CountFailuresSince(ctx, identityNumber, tenantSlug, since)
}

func (r attempts) AggregateFailures(ctx context.Context, q store.FailureQuery) ([]domain.FailureGroup, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}
	return r.LoginAttempts.AggregateFailures(ctx, q)
}

type locks struct {
	store.LoginLocks
	s *Store
}

func (r locks) Get(ctx context.Context, identityNumber, tenantSlug string) (domain.LoginLock, error) {
	if err := r.s.check(); err != nil {
		return domain.LoginLock{}, err
	}
	return r.LoginLocks.Get(ctx, identityNumber, tenantSlug)
}

func (r locks) Upsert(ctx context.Context, l domain.LoginLock) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.LoginLocks.Upsert(ctx, l)
}

func (r locks) Delete(ctx context.Context, identityNumber, tenantSlug string) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.LoginLocks.Delete(ctx, identityNumber, tenantSlug)
}

type audit struct {
	store.Audit
	s *Store
}

func (r audit) Insert(ctx context.Context, entries ...domain.AuditEntry) error {
	if err := r.s.check(); err != nil {
		return err
	}
	return r.Audit.Insert(ctx, entries...)
}

func (r audit) ListRecent(ctx context.Context, tenantID string, limit int) ([]domain.AuditEntry, error) {
	if err := r.s.check(); err != nil {
		return nil, err
	}
	return r.Audit.ListRecent(ctx, tenantID, limit)
}
