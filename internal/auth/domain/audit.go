package domain

import "time"

type AuditAction string

const (
	AuditUserLogin       AuditAction = "USER_LOGIN"
	AuditMasterLogin     AuditAction = "MASTER_LOGIN"
	AuditAccountLocked   AuditAction = "ACCOUNT_LOCKED"
	AuditAccountUnlocked AuditAction = "ACCOUNT_UNLOCKED"
	AuditTenantSwitch    AuditAction = "TENANT_SWITCH"
)

// AuditEntry records a change in security posture.
type AuditEntry struct {
	ID         string
	TenantID   string
	Action     AuditAction
	Entity     string
	ActorID    string
	ActorName  string
	TargetName string
	Meta       map[string]any
	CreatedAt  time.Time
}
