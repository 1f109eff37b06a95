package models

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleAtLeast(RoleMaster, RoleAdmin))
	assert.True(t, RoleAtLeast(RoleMaster, RoleUser))
	assert.True(t, RoleAtLeast(RoleAdmin, RoleUser))
	assert.True(t, RoleAtLeast(RoleAdmin, RoleAdmin))

	assert.False(t, RoleAtLeast(RoleUser, RoleAdmin))
	assert.False(t, RoleAtLeast(RoleUser, RoleMaster))
	assert.False(t, RoleAtLeast(RoleAdmin, RoleMaster))

	// Unknown roles never satisfy any check.
	assert.False(t, RoleAtLeast("superuser", RoleUser))
	assert.False(t, RoleAtLeast("", RoleUser))
}

func TestTenantIsActive(t *testing.T) {
	tests := []struct {
		status string
		active bool
	}{
		{TenantStatusActive, true},
		// Overdue tenants keep access so they can settle the invoice.
		{TenantStatusOverdue, true},
		{TenantStatusSuspended, false},
		{TenantStatusBanned, false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			tenant := Tenant{Status: tt.status}
			assert.Equal(t, tt.active, tenant.IsActive())
		})
	}
}

func TestConversationPrimaryKeyColumnIsUUID(t *testing.T) {
	// The repository filters conversations with "uuid = ?", so the
	// migrated primary-key column must be named uuid, not id.
	s, err := schema.Parse(&Conversation{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	require.Len(t, s.PrimaryFields, 1)
	assert.Equal(t, "uuid", s.PrimaryFields[0].DBName)
	assert.Equal(t, "conversas", s.Table)
}

func TestMessageLogScanRoundtrip(t *testing.T) {
	log := MessageLog{
		NewMessage(MessageRoleUser, "Oi"),
		NewMessage(MessageRoleAssistant, "Olá! Como posso ajudar?"),
	}

	value, err := log.Value()
	require.NoError(t, err)

	var decoded MessageLog
	require.NoError(t, decoded.Scan(value))

	require.Len(t, decoded, 2)
	assert.Equal(t, MessageRoleUser, decoded[0].Role)
	assert.Equal(t, MessageRoleAssistant, decoded[1].Role)
	assert.Equal(t, "Oi", decoded[0].Content)
	assert.NotEmpty(t, decoded[0].ID)
}

func TestMessageLogScanNil(t *testing.T) {
	var log MessageLog
	require.NoError(t, log.Scan(nil))
	assert.Empty(t, log)
}

func TestNewMessageTimestampsUTC(t *testing.T) {
	before := time.Now().UTC()
	m := NewMessage(MessageRoleUser, "teste")
	after := time.Now().UTC()

	assert.Equal(t, time.UTC, m.Timestamp.Location())
	assert.False(t, m.Timestamp.Before(before))
	assert.False(t, m.Timestamp.After(after))
}

func TestCurrentMonthFormat(t *testing.T) {
	month := CurrentMonth()
	parsed, err := time.Parse("2006-01", month)
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Year(), parsed.Year())
}
