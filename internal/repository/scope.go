package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope carries the tenant a query is restricted to. Every repository
// method touching a tenant-owned table takes a Scope, so omitting the
// empresa_id filter is structurally impossible rather than a per-handler
// discipline.
type Scope struct {
	TenantID uuid.UUID
}

// ForTenant builds a scope for the given tenant
func ForTenant(tenantID uuid.UUID) Scope {
	return Scope{TenantID: tenantID}
}

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	return db.Where("empresa_id = ?", s.TenantID)
}
