package domain

import "time"

// FailureReason tags a failed login attempt.
type FailureReason string

const (
	ReasonMaintenance   FailureReason = "maintenance"
	ReasonLocked        FailureReason = "locked"
	ReasonNotFound      FailureReason = "not_found"
	ReasonInactive      FailureReason = "inactive"
	ReasonWrongPassword FailureReason = "wrong_password"

	// ReasonDegraded marks a failure seen while the store was considered
	// unavailable. Its lookups ran against a synthesized tenant.
	ReasonDegraded FailureReason = "degraded"
)

// CountsTowardLockout reports whether a failure with this reason counts
// toward the lockout threshold. Rejections that never reached the password
// check do not, nor do failures seen while degraded.
func (r FailureReason) CountsTowardLockout() bool {
	switch r {
	case ReasonLocked, ReasonMaintenance, ReasonDegraded, "":
		return false
	}
	return true
}

// LoginAttempt is append-only.
type LoginAttempt struct {
	ID             string
	IdentityNumber string
	TenantSlug     string
	Success        bool
	Reason         FailureReason
	IP             string
	IsMaster       bool
	CreatedAt      time.Time
}

// LoginLock blocks an identity in a tenant until Until. Expired locks are
// left in place and ignored.
type LoginLock struct {
	IdentityNumber string
	TenantSlug     string
	Until          time.Time
	CreatedAt      time.Time
}

// ActiveAt reports whether the lock still applies at now.
func (l LoginLock) ActiveAt(now time.Time) bool {
	return l.Until.After(now)
}

// FailureGroupBy selects the aggregation key of a brute-force report.
type FailureGroupBy string

const (
	GroupByIdentity FailureGroupBy = "identity"
	GroupByIP       FailureGroupBy = "ip"
)

// FailureGroup is one aggregated bucket of counted failures.
type FailureGroup struct {
	Key         string
	TenantSlug  string
	Failures    int
	LastAttempt time.Time
}
