package service

import (
	"context"
	"errors"
	"slices"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

// legacyRolePermissions backs users without a structured role.
var legacyRolePermissions = map[string]domain.PermissionSet{
	domain.RoleAdmin:   {CanVote: true, KitchenView: true, KitchenManage: true, IsAdmin: true},
	domain.RoleKitchen: {CanVote: true, KitchenView: true},
	domain.RoleMember:  {CanVote: true},
}

// LegacyPermissions returns the fixed permissions of a legacy role name.
// Unknown names get nothing.
func LegacyPermissions(role string) domain.PermissionSet {
	return legacyRolePermissions[role]
}

// PermissionResolver turns a user into an effective permission set.
type PermissionResolver struct {
	Store   store.Store
	Cache   *PermissionCache
	Metrics *metrics.Metrics
}

// Resolve loads userID and resolves its permissions. A user that does not
// exist falls back to knownRole; any other failure yields no permissions.
func (r *PermissionResolver) Resolve(ctx context.Context, userID, knownRole string) domain.PermissionSet {
	if userID == "" {
		return domain.PermissionSet{}
	}

	u, err := r.Store.Users().GetByID(ctx, userID)
	switch {
	case err == nil:
		return r.ForUser(ctx, u)
	case errors.Is(err, store.ErrNotFound):
		return LegacyPermissions(knownRole).Inherit()
	default:
		slogx.FromContext(ctx).Warn("permission lookup failed", "user_id", userID, "error", err)
		return domain.PermissionSet{}
	}
}

// ForUser resolves an already loaded user: the structured role when one is
// linked and readable, else the legacy role name. Admin implies everything.
func (r *PermissionResolver) ForUser(ctx context.Context, u domain.User) domain.PermissionSet {
	if u.RoleID != "" {
		if p, ok := r.rolePermissions(ctx, u.RoleID); ok {
			return p.Inherit()
		}
	}
	return LegacyPermissions(u.Role).Inherit()
}

func (r *PermissionResolver) rolePermissions(ctx context.Context, roleID string) (domain.PermissionSet, bool) {
	if r.Cache != nil {
		if e, ok := r.Cache.Get(roleID); ok {
			r.Metrics.RoleCache(true)
			return e.Permissions, true
		}
		r.Metrics.RoleCache(false)
	}

	role, err := r.Store.Roles().GetByID(ctx, roleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("role lookup failed", "role_id", roleID, "error", err)
		}
		return domain.PermissionSet{}, false
	}

	// Stored raw; inheritance is applied by the caller.
	if r.Cache != nil {
		r.Cache.Put(roleID, role.Permissions)
	}
	return role.Permissions, true
}

// RequirePermission allows admins everything and otherwise checks the named
// flag. Missing claims are forbidden.
func RequirePermission(claims *authsdk.SessionClaims, perm authsdk.Permission) error {
	if claims == nil || !claims.Permissions.Has(perm) {
		return ErrForbidden
	}
	return nil
}

// Authorize re-resolves the session's permissions from the store and then
// requires perm, so a demoted user loses access before the token expires.
// Master sessions keep their fixed grant.
func (r *PermissionResolver) Authorize(ctx context.Context, claims *authsdk.SessionClaims, perm authsdk.Permission) error {
	if claims == nil {
		return ErrForbidden
	}
	if !claims.IsMaster {
		claims.Permissions = r.Resolve(ctx, claims.UserID, claims.CurrentRole)
	}
	return RequirePermission(claims, perm)
}

// RequireRole checks the session's current legacy role against allowed.
func RequireRole(claims *authsdk.SessionClaims, allowed ...string) error {
	if claims == nil || !slices.Contains(allowed, claims.CurrentRole) {
		return ErrForbidden
	}
	return nil
}
