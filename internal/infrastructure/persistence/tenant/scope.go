// Package tenant provides tenant scoping for GORM queries.
//
//	db.Scopes(tenant.Scope(tenantID)).Find(&orders) // WHERE tenant_id = ?
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is added to the statement when a scope gets uuid.Nil
var ErrTenantIDRequired = errors.New("tenant_id is required")

const column = "tenant_id"

// Scope restricts a query to one tenant. A nil tenant id fails the statement
// rather than silently reading every tenant's rows.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(column+" = ?", tenantID)
	}
}

// OwnerScope selects rows owned by tenantID, or the tenant-less default rows
// when tenantID is nil.
func OwnerScope(tenantID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == nil {
			return db.Where(column + " IS NULL")
		}
		return db.Where(column+" = ?", *tenantID)
	}
}
