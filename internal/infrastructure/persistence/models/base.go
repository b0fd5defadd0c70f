package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/shared"
)

// BaseModel provides the id and timestamp columns. It maps to shared.BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to a domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from a domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// Stamp fills id and timestamps on rows built outside a domain entity
func (m *BaseModel) Stamp(now time.Time) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&OrderModel{},
		&OrderItemModel{},
		&CarrierCredentialModel{},
		&MarketplaceCredentialModel{},
		&ShipperProfileModel{},
	}
}
