package domain

import "time"

type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantTrial     TenantStatus = "trial"
	TenantExpired   TenantStatus = "expired"
)

// Valid reports whether s is a known status.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantSuspended, TenantTrial, TenantExpired:
		return true
	}
	return false
}

type Tenant struct {
	Slug        string
	TenantID    string
	Name        string
	Status      TenantStatus
	Maintenance *Maintenance
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Maintenance is a maintenance flag set on a tenant or on the platform.
type Maintenance struct {
	Active  bool
	Message string
	Until   *time.Time // nil means until switched off
}

// InForce reports whether the flag blocks logins at now. A window whose
// Until has passed no longer applies even if nobody switched it off.
func (m *Maintenance) InForce(now time.Time) bool {
	if m == nil || !m.Active {
		return false
	}
	return m.Until == nil || now.Before(*m.Until)
}
