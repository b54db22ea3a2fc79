package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/audit"
	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/cryptox"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

const (
	DefaultPlatformTenant = "platform"
	MasterUserID          = "master"
	masterFullName        = "Master Admin"
)

// MasterCredentials is the platform identity that needs no tenant account.
// PasswordHash, when set, takes precedence over Password.
type MasterCredentials struct {
	Identity     string `koanf:"identity"`
	Password     string `koanf:"password"`
	PasswordHash string `koanf:"passwordhash"`
}

func (m MasterCredentials) Enabled() bool {
	return m.Identity != "" && (m.Password != "" || m.PasswordHash != "")
}

// LoginInput is what a client presents to log in.
type LoginInput struct {
	IdentityNumber string
	Password       string
	TenantSlug     string
	IP             string

	// FallbackTenantSlug is a remembered tenant, such as the tenant-slug
	// cookie. It is used when TenantSlug is empty, after the master shortcut.
	FallbackTenantSlug string
}

// LoginResult is a successful login or tenant switch.
type LoginResult struct {
	Session     IssuedSession
	Tenant      TenantContext
	IsMaster    bool
	Maintenance *domain.Maintenance // in force and bypassed by an elevated role
	Degraded    bool
}

// AuthGateway runs the login and tenant-switch flows and the operator
// actions on locks.
type AuthGateway struct {
	Store       store.Store
	Health      *store.Health // optional
	Tenants     *TenantService
	Permissions *PermissionResolver
	Security    *LoginSecurityGuard
	Sessions    *SessionIssuer
	Hasher      cryptox.Hasher
	Audit       audit.Sink
	Metrics     *metrics.Metrics

	Master       MasterCredentials
	PlatformSlug string

	Now func() time.Time
}

func (g *AuthGateway) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *AuthGateway) platformSlug() string {
	if g.PlatformSlug == "" {
		return DefaultPlatformTenant
	}
	return g.PlatformSlug
}

func (g *AuthGateway) record(ctx context.Context, e domain.AuditEntry) {
	if g.Audit != nil {
		g.Audit.Record(ctx, e)
	}
}

// Login authenticates in against a tenant. Gates run in order: master
// shortcut, maintenance, lock, user lookup, password. Maintenance and lock
// gates are skipped when the store is unreachable, and then no failure
// counts toward a lock.
func (g *AuthGateway) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	identity := strings.TrimSpace(in.IdentityNumber)
	if identity == "" || in.Password == "" {
		return LoginResult{}, validationError("identityNumber and password are required")
	}

	if res, ok, err := g.masterLogin(ctx, identity, in); ok {
		return res, err
	}

	rawSlug := in.TenantSlug
	if strings.TrimSpace(rawSlug) == "" {
		rawSlug = in.FallbackTenantSlug
	}
	tc := g.Tenants.Resolve(ctx, rawSlug)
	slug := tc.Tenant.Slug
	ctx = slogx.WithTenant(ctx, slug)
	l := slogx.FromContext(ctx)

	attempt := domain.LoginAttempt{IdentityNumber: identity, TenantSlug: slug, IP: in.IP}
	res := LoginResult{Tenant: tc, Degraded: tc.Degraded}

	var (
		user   domain.User
		loaded bool
	)

	if !tc.Degraded {
		if m := g.maintenanceInForce(ctx, tc); m != nil {
			u, err := g.Store.Users().FindByIdentity(ctx, tc.Tenant.TenantID, identity)
			if err != nil || RequireRole(&authsdk.SessionClaims{CurrentRole: u.Role}, domain.MaintenanceRoles...) != nil {
				g.reject(ctx, attempt, domain.ReasonMaintenance)
				return LoginResult{}, &MaintenanceError{Message: m.Message, Until: m.Until}
			}
			user, loaded = u, true
			res.Maintenance = m
		}

		locked, err := g.Security.IsLocked(ctx, identity, slug)
		if err != nil {
			l.Warn("lock check failed, continuing", "identity", identity, "error", err)
		} else if locked {
			g.reject(ctx, attempt, domain.ReasonLocked)
			return LoginResult{}, ErrAccountLocked
		}
	}

	if !loaded {
		u, err := g.Store.Users().FindByIdentity(ctx, tc.Tenant.TenantID, identity)
		switch {
		case err == nil:
			user = u
		case errors.Is(err, store.ErrNotFound) && tc.Degraded:
			// The tenant id is only a guess while degraded, so a miss says
			// nothing about the account.
			l.Warn("user lookup missed on a synthesized tenant", "identity", identity)
			g.reject(ctx, attempt, domain.ReasonDegraded)
			return LoginResult{}, ErrUnavailable
		case errors.Is(err, store.ErrNotFound):
			g.Hasher.VerifyDummy(in.Password)
			g.fail(ctx, attempt, domain.ReasonNotFound, tc)
			return LoginResult{}, ErrUserNotFound
		default:
			l.Error("user lookup failed", "identity", identity, "error", err)
			g.Metrics.Login("error")
			return LoginResult{}, ErrUnavailable
		}
	}

	if !user.IsActive {
		g.Hasher.VerifyDummy(in.Password)
		g.fail(ctx, attempt, domain.ReasonInactive, tc)
		return LoginResult{}, ErrAccountInactive
	}

	if err := g.Hasher.Verify(in.Password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrInvalidHash) {
			l.Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
		}
		g.fail(ctx, attempt, domain.ReasonWrongPassword, tc)
		return LoginResult{}, ErrInvalidPassword
	}

	claims := authsdk.SessionClaims{
		UserID:        user.ID,
		Username:      user.IdentityNumber,
		FullName:      user.FullName,
		Email:         user.Email,
		CurrentTenant: slug,
		CurrentRole:   user.Role,
		RolesByTenant: g.rolesByTenant(ctx, user, slug),
		Permissions:   g.Permissions.ForUser(ctx, user),
	}
	session, err := g.Sessions.Issue(claims)
	if err != nil {
		l.Error("failed to issue session", "user_id", user.ID, "error", err)
		return LoginResult{}, err
	}
	res.Session = session

	attempt.Success = true
	g.Security.RecordAttempt(ctx, attempt)
	g.Metrics.Login("success")
	g.record(ctx, domain.AuditEntry{
		TenantID:   tc.Tenant.TenantID,
		Action:     domain.AuditUserLogin,
		Entity:     "session",
		ActorID:    user.ID,
		ActorName:  user.FullName,
		TargetName: user.IdentityNumber,
		Meta:       map[string]any{"tenantSlug": slug, "ip": in.IP, "degraded": tc.Degraded},
	})
	l.Info("login succeeded", "user_id", user.ID, "degraded", tc.Degraded)
	return res, nil
}

// masterLogin handles the master shortcut. ok is false when the credentials
// are not the master's, so the normal flow runs. It touches the store only
// to record the attempt in the background.
func (g *AuthGateway) masterLogin(ctx context.Context, identity string, in LoginInput) (LoginResult, bool, error) {
	if !g.Master.Enabled() || identity != g.Master.Identity {
		return LoginResult{}, false, nil
	}
	platform := g.platformSlug()
	if in.TenantSlug != "" && g.Tenants.Sanitize(in.TenantSlug) != platform {
		return LoginResult{}, false, nil
	}
	if !g.masterPasswordMatches(in.Password) {
		return LoginResult{}, false, nil
	}

	ctx = slogx.WithTenant(ctx, platform)
	claims := authsdk.SessionClaims{
		UserID:        MasterUserID,
		Username:      identity,
		FullName:      masterFullName,
		CurrentTenant: platform,
		CurrentRole:   domain.RoleAdmin,
		RolesByTenant: map[string]string{platform: domain.RoleAdmin},
		Permissions:   authsdk.AllPermissions,
		IsMaster:      true,
	}
	session, err := g.Sessions.Issue(claims)
	if err != nil {
		return LoginResult{}, true, err
	}

	g.Security.RecordAttempt(ctx, domain.LoginAttempt{
		IdentityNumber: identity,
		TenantSlug:     platform,
		Success:        true,
		IP:             in.IP,
		IsMaster:       true,
	})
	g.Metrics.Login("master")
	g.record(ctx, domain.AuditEntry{
		Action:     domain.AuditMasterLogin,
		Entity:     "session",
		ActorID:    MasterUserID,
		ActorName:  masterFullName,
		TargetName: identity,
		Meta:       map[string]any{"ip": in.IP},
	})
	slogx.FromContext(ctx).Info("master login succeeded")

	return LoginResult{
		Session:  session,
		Tenant:   TenantContext{Tenant: domain.Tenant{Slug: platform, TenantID: platform, Name: g.Tenants.PlatformName, Status: domain.TenantActive}},
		IsMaster: true,
	}, true, nil
}

func (g *AuthGateway) masterPasswordMatches(password string) bool {
	if g.Master.PasswordHash != "" {
		return g.Hasher.Verify(password, g.Master.PasswordHash) == nil
	}
	// Hash both sides so the comparison does not leak the length.
	a := sha256.Sum256([]byte(password))
	b := sha256.Sum256([]byte(g.Master.Password))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// maintenanceInForce returns the tenant's window, else the platform's, when
// in force. Errors reading the platform flag skip the gate.
func (g *AuthGateway) maintenanceInForce(ctx context.Context, tc TenantContext) *domain.Maintenance {
	now := g.now()
	if tc.Tenant.Maintenance.InForce(now) {
		return tc.Tenant.Maintenance
	}

	m, err := g.Store.Settings().GetMaintenance(ctx)
	if err != nil {
		g.Metrics.Degraded("maintenance_check")
		slogx.FromContext(ctx).Warn("maintenance check failed, continuing", "error", err)
		return nil
	}
	if m.InForce(now) {
		return m
	}
	return nil
}

// reject records a failure that never reached the password check.
func (g *AuthGateway) reject(ctx context.Context, a domain.LoginAttempt, reason domain.FailureReason) {
	a.Reason = reason
	g.Security.RecordAttempt(ctx, a)
	g.Metrics.Login(string(reason))
}

// fail records a counted failure, which may lock the pair. While degraded
// the lock gate did not run, so the failure is recorded uncounted instead.
func (g *AuthGateway) fail(ctx context.Context, a domain.LoginAttempt, reason domain.FailureReason, tc TenantContext) {
	if tc.Degraded {
		slogx.FromContext(ctx).Info("login failed while degraded, not counted",
			"identity", a.IdentityNumber, "reason", reason)
		a.Reason = domain.ReasonDegraded
		g.Security.RecordAttempt(ctx, a)
		g.Metrics.Login(string(reason))
		return
	}

	a.Reason = reason
	g.Metrics.Login(string(reason))
	if _, err := g.Security.RecordFailure(ctx, a, tc.Tenant.TenantID); err != nil {
		slogx.FromContext(ctx).Warn("failed to record login failure",
			"identity", a.IdentityNumber, "reason", reason, "error", err)
	}
}

// rolesByTenant maps every tenant the identity has an account in to its
// role there. The current tenant is always present.
func (g *AuthGateway) rolesByTenant(ctx context.Context, u domain.User, current string) map[string]string {
	roles := map[string]string{current: u.Role}

	memberships, err := g.Store.Users().ListMemberships(ctx, u.IdentityNumber)
	if err != nil {
		slogx.FromContext(ctx).Warn("membership lookup failed", "user_id", u.ID, "error", err)
		return roles
	}
	for _, m := range memberships {
		if m.TenantID == u.TenantID {
			continue
		}
		roles[m.TenantSlug] = m.Role
	}
	return roles
}

// SwitchTenant reissues current for another tenant the session already
// holds a role in. Master sessions are held to the same rule.
func (g *AuthGateway) SwitchTenant(ctx context.Context, current authsdk.SessionClaims, rawSlug string) (LoginResult, error) {
	if current.UserID == "" {
		return LoginResult{}, ErrInvalidSession
	}
	if strings.TrimSpace(rawSlug) == "" {
		return LoginResult{}, validationError("tenantSlug is required")
	}

	slug := g.Tenants.Sanitize(rawSlug)
	role, ok := current.RoleIn(slug)
	if !ok {
		return LoginResult{}, ErrNoTenantAccess
	}

	tc := g.Tenants.Resolve(ctx, slug)
	ctx = slogx.WithTenant(ctx, slug)

	next := current
	next.CurrentTenant = slug
	next.CurrentRole = role

	switch {
	case current.IsMaster:
		next.Permissions = authsdk.AllPermissions
	case tc.Degraded:
		next.Permissions = LegacyPermissions(role).Inherit()
	default:
		u, err := g.Store.Users().FindByIdentity(ctx, tc.Tenant.TenantID, current.Username)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slogx.FromContext(ctx).Warn("switch lookup failed, using legacy role", "error", err)
			}
			next.Permissions = LegacyPermissions(role).Inherit()
			break
		}
		next.UserID = u.ID
		next.CurrentRole = u.Role
		next.FullName = u.FullName
		next.Email = u.Email
		next.RolesByTenant = copyRoles(current.RolesByTenant)
		next.RolesByTenant[slug] = u.Role
		next.Permissions = g.Permissions.ForUser(ctx, u)
	}

	session, err := g.Sessions.Issue(next)
	if err != nil {
		return LoginResult{}, err
	}

	g.record(ctx, domain.AuditEntry{
		TenantID:   tc.Tenant.TenantID,
		Action:     domain.AuditTenantSwitch,
		Entity:     "session",
		ActorID:    next.UserID,
		ActorName:  next.FullName,
		TargetName: slug,
		Meta:       map[string]any{"from": current.CurrentTenant, "to": slug},
	})
	return LoginResult{Session: session, Tenant: tc, IsMaster: current.IsMaster, Degraded: tc.Degraded}, nil
}

func copyRoles(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// AuthorizeOperator allows the master session anywhere and an admin session
// in its own current tenant.
func AuthorizeOperator(claims authsdk.SessionClaims, tenantSlug string) error {
	if claims.IsMaster {
		return nil
	}
	if claims.Permissions.IsAdmin && claims.CurrentTenant == tenantSlug {
		return nil
	}
	return ErrForbidden
}

// Unlock lifts the lock of identityNumber in a tenant, defaulting to the
// operator's current tenant. It returns the tenant slug acted on.
func (g *AuthGateway) Unlock(ctx context.Context, operator authsdk.SessionClaims, identityNumber, rawSlug string) (string, error) {
	identity := strings.TrimSpace(identityNumber)
	if identity == "" {
		return "", validationError("identityNumber is required")
	}

	slug := operator.CurrentTenant
	if strings.TrimSpace(rawSlug) != "" {
		slug = g.Tenants.Sanitize(rawSlug)
	}
	if err := AuthorizeOperator(operator, slug); err != nil {
		return "", err
	}

	tc := g.Tenants.Resolve(ctx, slug)
	actor := Actor{ID: operator.UserID, Name: operator.FullName}
	if err := g.Security.Unlock(ctx, identity, slug, tc.Tenant.TenantID, actor); err != nil {
		slogx.FromContext(ctx).Error("unlock failed", "identity", identity, "tenant", slug, "error", err)
		return "", ErrUnavailable
	}
	return slug, nil
}

// BruteForce returns the advisory failure report. Tenant admins only see
// their own tenant; the master may pass any tenant or none for all.
func (g *AuthGateway) BruteForce(ctx context.Context, operator authsdk.SessionClaims, rawSlug, longRange string) (authsdk.BruteForceReport, error) {
	slug := ""
	if strings.TrimSpace(rawSlug) != "" {
		slug = g.Tenants.Sanitize(rawSlug)
	}
	if !operator.IsMaster {
		if slug == "" {
			slug = operator.CurrentTenant
		}
		if err := AuthorizeOperator(operator, slug); err != nil {
			return authsdk.BruteForceReport{}, err
		}
	}

	report, err := g.Security.BruteForceReport(ctx, slug, longRange)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return authsdk.BruteForceReport{}, err
		}
		slogx.FromContext(ctx).Error("brute-force report failed", "error", err)
		return authsdk.BruteForceReport{}, ErrUnavailable
	}
	return report, nil
}
