package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderModel is the persistence model for order.Order.
// uq_orders_source is the reconciliation identity.
type OrderModel struct {
	BaseModel
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_orders_source,priority:1"`
	SourceName string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_orders_source,priority:2"`
	SourceKey  string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_orders_source,priority:3"`

	CustomerName      string           `gorm:"type:varchar(255);not null"`
	CustomerFirstName *string          `gorm:"type:varchar(128)"`
	CustomerLastName  *string          `gorm:"type:varchar(128)"`
	CustomerEmail     *string          `gorm:"type:varchar(255)"`
	CustomerPhone     *string          `gorm:"type:varchar(64)"`
	Status            *string          `gorm:"type:varchar(64)"`
	Currency          *string          `gorm:"type:varchar(3)"`
	TotalPrice        *decimal.Decimal `gorm:"type:numeric(18,4)"`
	ShippingAddress   datatypes.JSON   `gorm:"type:jsonb"`
	BillingAddress    datatypes.JSON   `gorm:"type:jsonb"`
	PlacedAt          *time.Time
	RawPayload        datatypes.JSON `gorm:"type:jsonb"`
	LastFetchedAt     *time.Time

	PackingStatus            *string `gorm:"type:varchar(64)"`
	PackingStatusUpdatedAt   *time.Time
	ProductionNotes          *string `gorm:"type:text"`
	ProductionNotesUpdatedAt *time.Time
	CarrierOptions           datatypes.JSON `gorm:"type:jsonb"`

	TrackingNumber   *string `gorm:"type:varchar(64);index"`
	LabelURL         *string `gorm:"type:text"`
	ArchivedLabelKey *string `gorm:"type:varchar(512)"`
	MasterFormID     *string `gorm:"type:varchar(64)"`
	ShipmentStatus   *string `gorm:"type:varchar(32)"`
	ShippedAt        *time.Time

	SyncedAt   *time.Time
	SyncStatus string `gorm:"type:varchar(128);not null;default:'ok'"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// MarketplaceColumns are rewritten on every sync
var MarketplaceColumns = []string{
	"customer_name", "customer_first_name", "customer_last_name", "customer_email", "customer_phone",
	"status", "currency", "total_price", "shipping_address", "billing_address", "placed_at",
	"raw_payload", "last_fetched_at",
}

// SyncAuditColumns are stamped by every sync attempt
var SyncAuditColumns = []string{"synced_at", "sync_status", "updated_at"}

// ShipmentColumns are written only by the label service
var ShipmentColumns = []string{
	"tracking_number", "label_url", "archived_label_key", "master_form_id", "shipment_status", "shipped_at",
	"updated_at",
}

// FromDomain populates the model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) error {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.SourceName = string(o.SourceName)
	m.SourceKey = o.SourceKey

	m.CustomerName = o.CustomerName
	m.CustomerFirstName = o.CustomerFirstName
	m.CustomerLastName = o.CustomerLastName
	m.CustomerEmail = o.CustomerEmail
	m.CustomerPhone = o.CustomerPhone
	m.Status = o.Status
	m.Currency = o.Currency
	m.TotalPrice = o.TotalPrice
	m.PlacedAt = o.PlacedAt
	m.LastFetchedAt = o.LastFetchedAt
	m.RawPayload = rawJSON(o.RawPayload)

	var err error
	if m.ShippingAddress, err = addressJSON(o.ShippingAddress); err != nil {
		return err
	}
	if m.BillingAddress, err = addressJSON(o.BillingAddress); err != nil {
		return err
	}
	if m.CarrierOptions, err = CarrierOptionsJSON(o.CarrierOptions); err != nil {
		return err
	}

	m.PackingStatus = o.PackingStatus
	m.PackingStatusUpdatedAt = o.PackingStatusUpdatedAt
	m.ProductionNotes = o.ProductionNotes
	m.ProductionNotesUpdatedAt = o.ProductionNotesUpdatedAt

	m.TrackingNumber = o.Shipment.TrackingNumber
	m.LabelURL = o.Shipment.LabelURL
	m.ArchivedLabelKey = o.Shipment.ArchivedLabelKey
	m.MasterFormID = o.Shipment.MasterFormID
	m.ShipmentStatus = o.Shipment.ShipmentStatus
	m.ShippedAt = o.Shipment.ShippedAt

	m.SyncedAt = o.SyncedAt
	m.SyncStatus = o.SyncStatus
	return nil
}

// ToDomain converts the model to a domain Order
func (m *OrderModel) ToDomain() (*order.Order, error) {
	o := &order.Order{
		TenantEntity: shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID},
		SourceName:   integration.SourceName(m.SourceName),
		SourceKey:    m.SourceKey,

		CustomerName:      m.CustomerName,
		CustomerFirstName: m.CustomerFirstName,
		CustomerLastName:  m.CustomerLastName,
		CustomerEmail:     m.CustomerEmail,
		CustomerPhone:     m.CustomerPhone,
		Status:            m.Status,
		Currency:          m.Currency,
		TotalPrice:        m.TotalPrice,
		PlacedAt:          m.PlacedAt,
		LastFetchedAt:     m.LastFetchedAt,

		PackingStatus:            m.PackingStatus,
		PackingStatusUpdatedAt:   m.PackingStatusUpdatedAt,
		ProductionNotes:          m.ProductionNotes,
		ProductionNotesUpdatedAt: m.ProductionNotesUpdatedAt,

		Shipment: order.ShipmentResult{
			TrackingNumber:   m.TrackingNumber,
			LabelURL:         m.LabelURL,
			ArchivedLabelKey: m.ArchivedLabelKey,
			MasterFormID:     m.MasterFormID,
			ShipmentStatus:   m.ShipmentStatus,
			ShippedAt:        m.ShippedAt,
		},

		SyncedAt:   m.SyncedAt,
		SyncStatus: m.SyncStatus,
	}
	if !isNullJSON(m.RawPayload) {
		o.RawPayload = json.RawMessage(m.RawPayload)
	}

	var err error
	if o.ShippingAddress, err = parseAddress(m.ShippingAddress); err != nil {
		return nil, err
	}
	if o.BillingAddress, err = parseAddress(m.BillingAddress); err != nil {
		return nil, err
	}
	if !isNullJSON(m.CarrierOptions) {
		if err := json.Unmarshal(m.CarrierOptions, &o.CarrierOptions); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OrderItemModel is the persistence model for order.OrderItem.
// uq_order_items_line is the item upsert identity.
type OrderItemModel struct {
	BaseModel
	OrderID            uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_order_items_line,priority:1"`
	RemoteLineID       string           `gorm:"type:varchar(128);not null;uniqueIndex:uq_order_items_line,priority:2"`
	SKU                *string          `gorm:"column:sku;type:varchar(128)"`
	ProductName        *string          `gorm:"type:varchar(512)"`
	Quantity           int              `gorm:"not null;default:0"`
	UnitPrice          *decimal.Decimal `gorm:"type:numeric(18,4)"`
	TotalPrice         *decimal.Decimal `gorm:"type:numeric(18,4)"`
	ImageURL           *string          `gorm:"type:text"`
	VariantDescription *string          `gorm:"type:varchar(512)"`
	Notes              *string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ItemSyncColumns are updated when an item is re-synced. notes is absent on purpose.
var ItemSyncColumns = []string{
	"sku", "product_name", "quantity", "unit_price", "total_price", "image_url", "variant_description",
	"updated_at",
}

// FromDomain populates the model from a domain OrderItem
func (m *OrderItemModel) FromDomain(it order.OrderItem) {
	m.ID = it.ID
	m.CreatedAt = it.CreatedAt
	m.UpdatedAt = it.UpdatedAt
	m.OrderID = it.OrderID
	m.RemoteLineID = it.RemoteLineID
	m.SKU = it.SKU
	m.ProductName = it.ProductName
	m.Quantity = it.Quantity
	m.UnitPrice = it.UnitPrice
	m.TotalPrice = it.TotalPrice
	m.ImageURL = it.ImageURL
	m.VariantDescription = it.VariantDescription
	m.Notes = it.Notes
}

// ToDomain converts the model to a domain OrderItem
func (m *OrderItemModel) ToDomain() order.OrderItem {
	return order.OrderItem{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		RemoteLineID:       m.RemoteLineID,
		SKU:                m.SKU,
		ProductName:        m.ProductName,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
		TotalPrice:         m.TotalPrice,
		ImageURL:           m.ImageURL,
		VariantDescription: m.VariantDescription,
		Notes:              m.Notes,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// CarrierOptionsJSON encodes operator carrier selections for the jsonb column
func CarrierOptionsJSON(opts order.CarrierOptions) (datatypes.JSON, error) {
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func addressJSON(a *valueobject.Address) (datatypes.JSON, error) {
	if a == nil || a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func parseAddress(data datatypes.JSON) (*valueobject.Address, error) {
	if isNullJSON(data) {
		return nil, nil
	}
	var a valueobject.Address
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}

func isNullJSON(data datatypes.JSON) bool {
	return len(data) == 0 || string(data) == "null"
}
