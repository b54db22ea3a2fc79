package audittest_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/mealvote/internal/auth/audit"
	"github.com/aussiebroadwan/mealvote/internal/auth/audit/audittest"
	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

var _ audit.Sink = (*audittest.Memory)(nil)

func TestMemory(t *testing.T) {
	var m audittest.Memory
	m.Record(context.Background(), domain.AuditEntry{Action: domain.AuditUserLogin})
	m.Record(context.Background(), domain.AuditEntry{Action: domain.AuditTenantSwitch})

	require.Equal(t, []domain.AuditAction{domain.AuditUserLogin, domain.AuditTenantSwitch}, m.Actions())

	entries := m.Entries()
	require.Len(t, entries, 2)
	entries[0].Action = domain.AuditMasterLogin
	require.Equal(t, domain.AuditUserLogin, m.Actions()[0], "Entries returns a copy")
}
