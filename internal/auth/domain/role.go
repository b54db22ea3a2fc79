package domain

import (
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
)

// PermissionSet is shared with every service reading sessions.
type PermissionSet = authsdk.PermissionSet

// Role is a structured role document. Permissions are stored raw; admin
// inheritance is applied only after resolution.
type Role struct {
	ID          string
	TenantID    string
	Name        string
	Permissions PermissionSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
