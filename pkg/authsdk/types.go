package authsdk

import "time"

// Cookie names shared by the auth service and every service reading its
// sessions.
const (
	SessionCookieName = "mv_session"
	TenantCookieName  = "tenant-slug"
)

// ============================================================================
// Permissions
// ============================================================================

// Permission names a single capability flag.
type Permission string

const (
	PermCanVote       Permission = "canVote"
	PermKitchenView   Permission = "kitchenView"
	PermKitchenManage Permission = "kitchenManage"
	PermIsAdmin       Permission = "isAdmin"
)

// ParsePermission maps a flag name to a Permission.
func ParsePermission(s string) (Permission, bool) {
	switch p := Permission(s); p {
	case PermCanVote, PermKitchenView, PermKitchenManage, PermIsAdmin:
		return p, true
	}
	return "", false
}

// PermissionSet is the fixed set of capability flags an identity holds.
// Stored role documents keep the raw flags; Inherit is applied once a set
// has been resolved.
type PermissionSet struct {
	CanVote       bool `json:"canVote"`
	KitchenView   bool `json:"kitchenView"`
	KitchenManage bool `json:"kitchenManage"`
	IsAdmin       bool `json:"isAdmin"`
}

// AllPermissions is the set granted to the master identity.
var AllPermissions = PermissionSet{CanVote: true, KitchenView: true, KitchenManage: true, IsAdmin: true}

// Inherit returns p with every flag forced on when IsAdmin is set.
func (p PermissionSet) Inherit() PermissionSet {
	if p.IsAdmin {
		return AllPermissions
	}
	return p
}

// Has reports whether the set grants perm. Admins hold every permission.
// Unknown names are never granted to non-admins.
func (p PermissionSet) Has(perm Permission) bool {
	if p.IsAdmin {
		return true
	}
	switch perm {
	case PermCanVote:
		return p.CanVote
	case PermKitchenView:
		return p.KitchenView
	case PermKitchenManage:
		return p.KitchenManage
	}
	return false
}

// IsZero reports whether no flag is set.
func (p PermissionSet) IsZero() bool { return p == PermissionSet{} }

// ============================================================================
// Session
// ============================================================================

// SessionClaims is the identity carried by a signed session. It is the
// source of truth for authorization until the session expires.
type SessionClaims struct {
	UserID        string            `json:"userId"`
	Username      string            `json:"username"`
	FullName      string            `json:"fullName,omitempty"`
	Email         string            `json:"email,omitempty"`
	CurrentTenant string            `json:"currentTenant"`
	CurrentRole   string            `json:"currentRole"`
	RolesByTenant map[string]string `json:"rolesByTenant"`
	Permissions   PermissionSet     `json:"permissions"`

	// IsMaster marks the platform master identity.
	IsMaster bool `json:"isMaster,omitempty"`
}

// RoleIn returns the role held in tenant and whether access exists.
func (c SessionClaims) RoleIn(tenant string) (string, bool) {
	role, ok := c.RolesByTenant[tenant]
	return role, ok
}

// MaintenanceInfo describes an active or scheduled maintenance window.
type MaintenanceInfo struct {
	Active  bool       `json:"active"`
	Message string     `json:"message,omitempty"`
	Until   *time.Time `json:"until,omitempty"`
}

// ============================================================================
// Requests & Responses
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	IdentityNumber string `json:"identityNumber"`
	Password       string `json:"password"`
	TenantSlug     string `json:"tenantSlug,omitempty"`
}

// LoginResponse is returned on a successful login. The session token
// itself travels in the session cookie.
type LoginResponse struct {
	Success       bool            `json:"success"`
	User          SessionClaims   `json:"user"`
	IsMasterAdmin bool            `json:"isMasterAdmin"`
	Maintenance   MaintenanceInfo `json:"maintenance"`
	Degraded      bool            `json:"degraded"`
	ExpiresAt     time.Time       `json:"expiresAt"`
}

// SwitchTenantRequest is the body of POST /v1/auth/switch-tenant.
type SwitchTenantRequest struct {
	TenantSlug string `json:"tenantSlug"`
}

// SwitchTenantResponse carries the reissued claims.
type SwitchTenantResponse struct {
	Success   bool          `json:"success"`
	User      SessionClaims `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// SessionResponse is returned by GET /v1/auth/session.
type SessionResponse struct {
	User      SessionClaims `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// UnlockRequest is the body of POST /v1/security/unlock.
type UnlockRequest struct {
	IdentityNumber string `json:"identityNumber"`
	TenantSlug     string `json:"tenantSlug,omitempty"`
}

// UnlockResponse confirms an unlock. Unlocking an account that was not
// locked still succeeds.
type UnlockResponse struct {
	Success        bool   `json:"success"`
	IdentityNumber string `json:"identityNumber"`
	TenantSlug     string `json:"tenantSlug"`
}

// TenantResponse is the public view of a tenant.
type TenantResponse struct {
	Slug        string          `json:"slug"`
	TenantID    string          `json:"tenantId"`
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	Maintenance MaintenanceInfo `json:"maintenance"`
}

// ============================================================================
// Brute-force analytics
// ============================================================================

// BruteForceGroup is one aggregated bucket of failed logins.
type BruteForceGroup struct {
	Key         string    `json:"key"`
	TenantSlug  string    `json:"tenantSlug,omitempty"`
	Failures    int       `json:"failures"`
	LastAttempt time.Time `json:"lastAttempt"`
	Flagged     bool      `json:"flagged"`
}

// BruteForceWindow aggregates failures since a point in time.
type BruteForceWindow struct {
	Range      string            `json:"range"`
	Since      time.Time         `json:"since"`
	ByIdentity []BruteForceGroup `json:"byIdentity"`
	ByIP       []BruteForceGroup `json:"byIp"`
}

// BruteForceReport is the advisory view returned by
// GET /v1/security/bruteforce. Flagged groups are candidates for review;
// the report never locks anything itself.
type BruteForceReport struct {
	TenantSlug string           `json:"tenantSlug,omitempty"`
	Threshold  int              `json:"threshold"`
	Short      BruteForceWindow `json:"short"`
	Long       BruteForceWindow `json:"long"`
	Alerts     int              `json:"alerts"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
