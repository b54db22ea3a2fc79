package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestLoginSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	u := f.seedUser("tenant-sman1", "0912345678", "hunter2", domain.RoleKitchen)

	res, err := f.login(" 0912345678 ", "hunter2", "SMAN1")
	require.NoError(t, err)
	require.False(t, res.IsMaster)
	require.False(t, res.Degraded)
	require.Nil(t, res.Maintenance)
	require.True(t, res.Tenant.Found)

	c := res.Session.Claims
	require.Equal(t, u.ID, c.UserID)
	require.Equal(t, "0912345678", c.Username)
	require.Equal(t, "sman1", c.CurrentTenant)
	require.Equal(t, domain.RoleKitchen, c.CurrentRole)
	require.Equal(t, map[string]string{"sman1": domain.RoleKitchen}, c.RolesByTenant)
	require.Equal(t, domain.PermissionSet{CanVote: true, KitchenView: true}, c.Permissions)
	require.Equal(t, f.clock.Now().Add(UserSessionTTL), res.Session.ExpiresAt)

	verified, err := f.gateway.Sessions.Verify(res.Session.Token)
	require.NoError(t, err)
	require.Equal(t, c, verified.SessionClaims)

	require.Equal(t, []domain.AuditAction{domain.AuditUserLogin}, f.audit.Actions())
}

func TestLoginByPhone(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember, func(u *domain.User) { u.Phone = "+628123" })

	res, err := f.login("+628123", "pw", "sman1")
	require.NoError(t, err)
	require.Equal(t, "1001", res.Session.Claims.Username)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.login("", "pw", "sman1")
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.login("   ", "pw", "sman1")
	require.ErrorIs(t, err, ErrValidation)
	_, err = f.login("1001", "", "sman1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestLoginRejections(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)
	f.seedUser("tenant-sman1", "1002", "pw", domain.RoleMember, func(u *domain.User) { u.IsActive = false })

	_, err := f.login("9999", "pw", "sman1")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.login("1002", "pw", "sman1")
	require.ErrorIs(t, err, ErrAccountInactive)

	_, err = f.login("1001", "wrong", "sman1")
	require.ErrorIs(t, err, ErrInvalidPassword)

	// Accounts are per tenant.
	_, err = f.login("1001", "pw", "smp2")
	require.ErrorIs(t, err, ErrUserNotFound)

	for identity, want := range map[string]int{"9999": 1, "1002": 1, "1001": 1} {
		n, err := f.guard.CountRecentFailures(context.Background(), identity, "sman1")
		require.NoError(t, err)
		require.Equal(t, want, n, identity)
	}
	require.Empty(t, f.audit.Actions())
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)

	for i := range DefaultSecurityPolicy.MaxFailedAttempts {
		_, err := f.login("1001", fmt.Sprintf("guess-%d", i), "sman1")
		require.ErrorIs(t, err, ErrInvalidPassword)
	}

	// The correct password no longer helps.
	_, err := f.login("1001", "pw", "sman1")
	require.ErrorIs(t, err, ErrAccountLocked)
	require.Equal(t, KindRateLimit, Classify(err))
	require.Contains(t, f.audit.Actions(), domain.AuditAccountLocked)

	// The locked rejection itself is not counted.
	n, err := f.guard.CountRecentFailures(context.Background(), "1001", "sman1")
	require.NoError(t, err)
	require.Equal(t, DefaultSecurityPolicy.MaxFailedAttempts, n)

	// Other tenants are unaffected.
	f.seedUser("smp2", "1001", "pw", domain.RoleMember) // unknown tenants resolve to their slug
	_, err = f.login("1001", "pw", "smp2")
	require.NoError(t, err)

	f.clock.Advance(DefaultSecurityPolicy.LockDuration)
	_, err = f.login("1001", "pw", "sman1")
	require.NoError(t, err)
}

func TestLoginBelowThresholdDoesNotLock(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)

	for range DefaultSecurityPolicy.MaxFailedAttempts - 1 {
		_, err := f.login("1001", "nope", "sman1")
		require.ErrorIs(t, err, ErrInvalidPassword)
	}
	_, err := f.login("1001", "pw", "sman1")
	require.NoError(t, err)

	locked, err := f.guard.IsLocked(context.Background(), "1001", "sman1")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestLoginTenantMaintenance(t *testing.T) {
	f := newFixture(t)
	until := f.clock.Now().Add(time.Hour)
	f.seedTenant("sman1", "tenant-sman1", &domain.Maintenance{Active: true, Message: "Menu update", Until: &until})
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)
	f.seedUser("tenant-sman1", "2001", "pw", domain.RoleKitchen)

	_, err := f.login("1001", "pw", "sman1")
	var me *MaintenanceError
	require.ErrorAs(t, err, &me)
	require.ErrorIs(t, err, ErrMaintenance)
	require.Equal(t, "Menu update", me.Message)
	require.Equal(t, until, *me.Until)

	// Unknown identities see the same rejection.
	_, err = f.login("9999", "pw", "sman1")
	require.ErrorIs(t, err, ErrMaintenance)

	// Maintenance rejections never count toward a lock.
	for range DefaultSecurityPolicy.MaxFailedAttempts {
		_, _ = f.login("1001", "pw", "sman1")
	}
	locked, err := f.guard.IsLocked(context.Background(), "1001", "sman1")
	require.NoError(t, err)
	require.False(t, locked)

	res, err := f.login("2001", "pw", "sman1")
	require.NoError(t, err)
	require.NotNil(t, res.Maintenance)
	require.Equal(t, "Menu update", res.Maintenance.Message)

	// Elevated roles still need the right password.
	_, err = f.login("2001", "wrong", "sman1")
	require.ErrorIs(t, err, ErrInvalidPassword)

	f.clock.Advance(time.Hour)
	_, err = f.login("1001", "pw", "sman1")
	require.NoError(t, err)
}

func TestLoginGlobalMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)
	f.seedUser("tenant-sman1", "3001", "pw", domain.RoleAdmin)

	require.NoError(t, f.store.Settings().SetMaintenance(ctx, &domain.Maintenance{Active: true, Message: "Platform upgrade"}))

	_, err := f.login("1001", "pw", "sman1")
	require.ErrorIs(t, err, ErrMaintenance)
	require.Equal(t, KindMaintenance, Classify(err))

	res, err := f.login("3001", "pw", "sman1")
	require.NoError(t, err)
	require.Equal(t, "Platform upgrade", res.Maintenance.Message)

	// The master identity is never held back.
	_, err = f.login(testMasterIdentity, testMasterPassword, "")
	require.NoError(t, err)

	require.NoError(t, f.store.Settings().SetMaintenance(ctx, &domain.Maintenance{Active: false}))
	_, err = f.login("1001", "pw", "sman1")
	require.NoError(t, err)
}

func TestMasterLogin(t *testing.T) {
	f := newFixture(t)

	res, err := f.login(testMasterIdentity, testMasterPassword, "")
	require.NoError(t, err)
	require.True(t, res.IsMaster)
	require.True(t, res.Session.Claims.IsMaster)
	require.Equal(t, MasterUserID, res.Session.Claims.UserID)
	require.Equal(t, DefaultPlatformTenant, res.Session.Claims.CurrentTenant)
	require.Equal(t, authsdk.AllPermissions, res.Session.Claims.Permissions)
	require.Equal(t, f.clock.Now().Add(MasterSessionTTL), res.Session.ExpiresAt)
	require.Equal(t, []domain.AuditAction{domain.AuditMasterLogin}, f.audit.Actions())

	_, err = f.login(testMasterIdentity, testMasterPassword, "Platform")
	require.NoError(t, err)
}

func TestMasterLoginWithoutStore(t *testing.T) {
	f := newFixture(t)
	f.store.SetDown(true)

	res, err := f.login(testMasterIdentity, testMasterPassword, "")
	require.NoError(t, err)
	require.True(t, res.IsMaster)
	require.Equal(t, f.clock.Now().Add(24*time.Hour), res.Session.ExpiresAt)
}

func TestMasterLoginWithHash(t *testing.T) {
	f := newFixture(t)
	hash, err := f.hasher.Hash("s3cret-master")
	require.NoError(t, err)
	f.gateway.Master = MasterCredentials{Identity: "root", PasswordHash: hash}

	res, err := f.login("root", "s3cret-master", "")
	require.NoError(t, err)
	require.True(t, res.IsMaster)
}

func TestMasterShortcutFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", testMasterIdentity, "tenant-pw", domain.RoleMember)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.login(testMasterIdentity, "nope", "")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("other tenant", func(t *testing.T) {
		_, err := f.login(testMasterIdentity, testMasterPassword, "sman1")
		require.ErrorIs(t, err, ErrInvalidPassword)

		res, err := f.login(testMasterIdentity, "tenant-pw", "sman1")
		require.NoError(t, err)
		require.False(t, res.IsMaster)
	})

	t.Run("disabled", func(t *testing.T) {
		f.gateway.Master = MasterCredentials{}
		_, err := f.login(testMasterIdentity, testMasterPassword, "")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestLoginDegraded(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)
	f.store.SetDown(true)

	_, err := f.login("1001", "pw", "sman1")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, KindDependency, Classify(err))
}

func TestLoginDuringHealthCooldown(t *testing.T) {
	ctx := context.Background()

	t.Run("correct password on a real tenant never locks", func(t *testing.T) {
		f := newFixture(t)
		health := f.withHealthCooldown(30 * time.Second)
		f.seedTenant("sman1", "tenant-sman1", nil)
		f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)
		f.blip(health)

		tc := f.gateway.Tenants.Resolve(ctx, "sman1")
		require.True(t, tc.Degraded)
		require.Equal(t, "sman1", tc.Tenant.TenantID)

		for range DefaultSecurityPolicy.MaxFailedAttempts + 1 {
			_, err := f.login("1001", "pw", "sman1")
			require.ErrorIs(t, err, ErrUnavailable)
		}

		n, err := f.guard.CountRecentFailures(ctx, "1001", "sman1")
		require.NoError(t, err)
		require.Zero(t, n)
		locked, err := f.guard.IsLocked(ctx, "1001", "sman1")
		require.NoError(t, err)
		require.False(t, locked)

		f.clock.Advance(31 * time.Second)
		res, err := f.login("1001", "pw", "sman1")
		require.NoError(t, err)
		require.False(t, res.Degraded)
	})

	t.Run("failures are recorded uncounted", func(t *testing.T) {
		f := newFixture(t)
		health := f.withHealthCooldown(30 * time.Second)
		// Id equal to the slug, so the synthesized tenant still finds the user.
		f.seedTenant("canteen", "canteen", nil)
		f.seedUser("canteen", "2001", "pw", domain.RoleMember)
		f.blip(health)

		for range DefaultSecurityPolicy.MaxFailedAttempts {
			_, err := f.login("2001", "wrong", "canteen")
			require.ErrorIs(t, err, ErrInvalidPassword)
		}
		locked, err := f.guard.IsLocked(ctx, "2001", "canteen")
		require.NoError(t, err)
		require.False(t, locked)

		f.clock.Advance(31 * time.Second)
		n, err := f.guard.CountRecentFailures(ctx, "2001", "canteen")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("existing lock is not renewed", func(t *testing.T) {
		f := newFixture(t)
		health := f.withHealthCooldown(30 * time.Second)
		f.seedTenant("canteen", "canteen", nil)
		f.seedUser("canteen", "2001", "pw", domain.RoleMember)

		for range DefaultSecurityPolicy.MaxFailedAttempts {
			_, _ = f.login("2001", "wrong", "canteen")
		}
		before, err := f.store.LoginLocks().Get(ctx, "2001", "canteen")
		require.NoError(t, err)

		f.clock.Advance(time.Minute)
		f.blip(health)
		_, err = f.login("2001", "wrong", "canteen")
		require.ErrorIs(t, err, ErrInvalidPassword)

		after, err := f.store.LoginLocks().Get(ctx, "2001", "canteen")
		require.NoError(t, err)
		require.Equal(t, before.Until, after.Until)
	})

	t.Run("gates come back together", func(t *testing.T) {
		f := newFixture(t)
		health := f.withHealthCooldown(30 * time.Second)
		f.seedTenant("canteen", "canteen", &domain.Maintenance{Active: true, Message: "stocktake"})
		f.seedUser("canteen", "2001", "pw", domain.RoleMember)
		f.blip(health)

		res, err := f.login("2001", "pw", "canteen")
		require.NoError(t, err)
		require.True(t, res.Degraded)
		require.Nil(t, res.Maintenance)

		f.clock.Advance(31 * time.Second)
		_, err = f.login("2001", "pw", "canteen")
		var me *MaintenanceError
		require.ErrorAs(t, err, &me)
		require.Equal(t, "stocktake", me.Message)
	})
}

func TestMasterLoginIgnoresFallbackTenant(t *testing.T) {
	f := newFixture(t)
	f.seedTenant("sman1", "tenant-sman1", nil)
	f.seedUser("tenant-sman1", "1001", "pw", domain.RoleMember)

	res, err := f.gateway.Login(context.Background(), LoginInput{
		IdentityNumber:     testMasterIdentity,
		Password:           testMasterPassword,
		FallbackTenantSlug: "sman1",
	})
	f.guard.Wait()
	require.NoError(t, err)
	require.True(t, res.IsMaster)

	n, err := f.guard.CountRecentFailures(context.Background(), testMasterIdentity, "sman1")
	require.NoError(t, err)
	require.Zero(t, n)

	// Ordinary logins still pick the remembered tenant up.
	res, err = f.gateway.Login(context.Background(), LoginInput{
		IdentityNumber: "1001", Password: "pw", FallbackTenantSlug: "sman1",
	})
	f.guard.Wait()
	require.NoError(t, err)
	require.Equal(t, "sman1", res.Session.Claims.CurrentTenant)
}

func seedTwoTenantUser(f *fixture) (alpha, beta domain.User) {
	f.seedTenant("alpha", "tenant-alpha", nil)
	f.seedTenant("beta", "tenant-beta", nil)
	alpha = f.seedUser("tenant-alpha", "1001", "pw", domain.RoleMember)
	beta = f.seedUser("tenant-beta", "1001", "pw", domain.RoleAdmin)
	return alpha, beta
}

func TestLoginCarriesEveryMembership(t *testing.T) {
	f := newFixture(t)
	seedTwoTenantUser(f)

	res, err := f.login("1001", "pw", "alpha")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"alpha": domain.RoleMember, "beta": domain.RoleAdmin}, res.Session.Claims.RolesByTenant)
	require.Equal(t, domain.PermissionSet{CanVote: true}, res.Session.Claims.Permissions)
}

func TestSwitchTenant(t *testing.T) {
	f := newFixture(t)
	_, beta := seedTwoTenantUser(f)

	res, err := f.login("1001", "pw", "alpha")
	require.NoError(t, err)

	switched, err := f.gateway.SwitchTenant(context.Background(), res.Session.Claims, " BETA ")
	require.NoError(t, err)
	c := switched.Session.Claims
	require.Equal(t, "beta", c.CurrentTenant)
	require.Equal(t, domain.RoleAdmin, c.CurrentRole)
	require.Equal(t, beta.ID, c.UserID)
	require.Equal(t, authsdk.AllPermissions, c.Permissions)
	require.Equal(t, res.Session.Claims.RolesByTenant, c.RolesByTenant)
	require.NoError(t, RequirePermission(&c, authsdk.PermKitchenManage))

	// The original claims are not changed in place.
	require.Equal(t, "alpha", res.Session.Claims.CurrentTenant)

	require.Equal(t, domain.AuditTenantSwitch, f.audit.Actions()[len(f.audit.Actions())-1])
}

func TestSwitchTenantRequiresMembership(t *testing.T) {
	f := newFixture(t)
	seedTwoTenantUser(f)
	res, err := f.login("1001", "pw", "alpha")
	require.NoError(t, err)

	_, err = f.gateway.SwitchTenant(context.Background(), res.Session.Claims, "gamma")
	require.ErrorIs(t, err, ErrNoTenantAccess)
	require.Equal(t, KindAuthorization, Classify(err))

	_, err = f.gateway.SwitchTenant(context.Background(), res.Session.Claims, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.gateway.SwitchTenant(context.Background(), authsdk.SessionClaims{}, "beta")
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSwitchTenantMaster(t *testing.T) {
	f := newFixture(t)
	res, err := f.login(testMasterIdentity, testMasterPassword, "")
	require.NoError(t, err)

	// The master only holds the platform tenant.
	_, err = f.gateway.SwitchTenant(context.Background(), res.Session.Claims, "alpha")
	require.ErrorIs(t, err, ErrNoTenantAccess)

	switched, err := f.gateway.SwitchTenant(context.Background(), res.Session.Claims, DefaultPlatformTenant)
	require.NoError(t, err)
	require.True(t, switched.IsMaster)
	require.Equal(t, authsdk.AllPermissions, switched.Session.Claims.Permissions)
	require.Equal(t, f.clock.Now().Add(MasterSessionTTL), switched.Session.ExpiresAt)
}

func TestSwitchTenantDegraded(t *testing.T) {
	f := newFixture(t)
	seedTwoTenantUser(f)
	res, err := f.login("1001", "pw", "alpha")
	require.NoError(t, err)

	f.store.SetDown(true)
	switched, err := f.gateway.SwitchTenant(context.Background(), res.Session.Claims, "beta")
	require.NoError(t, err)
	require.True(t, switched.Degraded)
	require.Equal(t, LegacyPermissions(domain.RoleAdmin).Inherit(), switched.Session.Claims.Permissions)
}

func lockOut(t *testing.T, f *fixture, identity, slug string) {
	t.Helper()
	for range DefaultSecurityPolicy.MaxFailedAttempts {
		_, err := f.guard.RecordFailure(context.Background(), failure(identity, slug, "10.0.0.1", domain.ReasonWrongPassword), "")
		require.NoError(t, err)
	}
}

func TestUnlockAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedTenant("alpha", "tenant-alpha", nil)
	f.seedTenant("beta", "tenant-beta", nil)
	lockOut(t, f, "1001", "alpha")
	lockOut(t, f, "1001", "beta")

	admin := authsdk.SessionClaims{UserID: "a1", FullName: "Alpha Admin", CurrentTenant: "alpha", CurrentRole: "admin", Permissions: authsdk.AllPermissions}
	member := authsdk.SessionClaims{UserID: "m1", CurrentTenant: "alpha", CurrentRole: "member", Permissions: domain.PermissionSet{CanVote: true}}
	master := authsdk.SessionClaims{UserID: MasterUserID, IsMaster: true, CurrentTenant: DefaultPlatformTenant, Permissions: authsdk.AllPermissions}

	_, err := f.gateway.Unlock(ctx, member, "1001", "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.gateway.Unlock(ctx, admin, "1001", "beta")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.gateway.Unlock(ctx, admin, " ", "")
	require.ErrorIs(t, err, ErrValidation)

	slug, err := f.gateway.Unlock(ctx, admin, "1001", "")
	require.NoError(t, err)
	require.Equal(t, "alpha", slug)
	locked, err := f.guard.IsLocked(ctx, "1001", "alpha")
	require.NoError(t, err)
	require.False(t, locked)

	slug, err = f.gateway.Unlock(ctx, master, "1001", "BETA")
	require.NoError(t, err)
	require.Equal(t, "beta", slug)

	entries := f.audit.Entries()
	last := entries[len(entries)-1]
	require.Equal(t, domain.AuditAccountUnlocked, last.Action)
	require.Equal(t, "tenant-beta", last.TenantID)
	require.Equal(t, MasterUserID, last.ActorID)
}

func TestUnlockStoreDown(t *testing.T) {
	f := newFixture(t)
	master := authsdk.SessionClaims{UserID: MasterUserID, IsMaster: true}
	f.store.SetDown(true)

	_, err := f.gateway.Unlock(context.Background(), master, "1001", "alpha")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestBruteForceAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lockOut(t, f, "1001", "alpha")
	lockOut(t, f, "2002", "beta")

	admin := authsdk.SessionClaims{UserID: "a1", CurrentTenant: "alpha", Permissions: authsdk.AllPermissions}
	member := authsdk.SessionClaims{UserID: "m1", CurrentTenant: "alpha", Permissions: domain.PermissionSet{CanVote: true}}
	master := authsdk.SessionClaims{UserID: MasterUserID, IsMaster: true}

	_, err := f.gateway.BruteForce(ctx, member, "", "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.gateway.BruteForce(ctx, admin, "beta", "")
	require.ErrorIs(t, err, ErrForbidden)

	report, err := f.gateway.BruteForce(ctx, admin, "", "")
	require.NoError(t, err)
	require.Equal(t, "alpha", report.TenantSlug)
	require.Len(t, report.Short.ByIdentity, 1)
	require.Equal(t, "1001", report.Short.ByIdentity[0].Key)

	all, err := f.gateway.BruteForce(ctx, master, "", "30d")
	require.NoError(t, err)
	require.Empty(t, all.TenantSlug)
	require.Len(t, all.Short.ByIdentity, 2)

	_, err = f.gateway.BruteForce(ctx, master, "", "1y")
	require.ErrorIs(t, err, ErrValidation)

	f.store.SetDown(true)
	_, err = f.gateway.BruteForce(ctx, master, "", "")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAuthorizeOperator(t *testing.T) {
	t.Parallel()

	require.NoError(t, AuthorizeOperator(authsdk.SessionClaims{IsMaster: true}, "anything"))
	require.NoError(t, AuthorizeOperator(authsdk.SessionClaims{CurrentTenant: "a", Permissions: domain.PermissionSet{IsAdmin: true}}, "a"))
	require.ErrorIs(t, AuthorizeOperator(authsdk.SessionClaims{CurrentTenant: "a", Permissions: domain.PermissionSet{IsAdmin: true}}, "b"), ErrForbidden)
	require.ErrorIs(t, AuthorizeOperator(authsdk.SessionClaims{CurrentTenant: "a", Permissions: domain.PermissionSet{KitchenManage: true}}, "a"), ErrForbidden)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{errors.New("boom"), KindUnknown},
		{validationError("bad"), KindValidation},
		{ErrForbidden, KindAuthorization},
		{ErrNoTenantAccess, KindAuthorization},
		{ErrInvalidPassword, KindAuthentication},
		{ErrUserNotFound, KindAuthentication},
		{ErrAccountInactive, KindAuthentication},
		{fmt.Errorf("%w: expired", ErrInvalidSession), KindAuthentication},
		{ErrAccountLocked, KindRateLimit},
		{&MaintenanceError{Message: "later"}, KindMaintenance},
		{fmt.Errorf("wrap: %w", ErrUnavailable), KindDependency},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
	require.Equal(t, "dependency_unavailable", KindDependency.String())
	require.Equal(t, "maintenance: later", (&MaintenanceError{Message: "later"}).Error())
}
