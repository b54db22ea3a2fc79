package domain

import "time"

// Legacy role names. Users without a structured role fall back to these.
const (
	RoleAdmin   = "admin"
	RoleKitchen = "kitchen"
	RoleMember  = "member"
)

// MaintenanceRoles may still log in while a tenant is under maintenance.
var MaintenanceRoles = []string{RoleAdmin, RoleKitchen}

type User struct {
	ID             string
	TenantID       string
	IdentityNumber string
	Phone          string
	FullName       string
	Email          string
	PasswordHash   string // argon2id PHC or legacy bcrypt
	IsActive       bool
	Role           string // legacy role name
	RoleID         string // optional reference to roles.id
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Membership is one tenant an identity number holds an account in.
type Membership struct {
	UserID     string
	TenantID   string
	TenantSlug string
	Role       string
}
