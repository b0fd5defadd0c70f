package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. (OrderID, RemoteLineID) is unique.
type OrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	RemoteLineID       string
	SKU                *string
	ProductName        *string
	Quantity           int
	UnitPrice          *decimal.Decimal
	TotalPrice         *decimal.Decimal
	ImageURL           *string
	VariantDescription *string
	// Notes are entered by operators and survive re-sync
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItemFromNormalized creates an item for orderID from adapter output
func NewItemFromNormalized(orderID uuid.UUID, in integration.NormalizedLineItem, now time.Time) OrderItem {
	return OrderItem{
		ID:                 uuid.New(),
		OrderID:            orderID,
		RemoteLineID:       in.RemoteLineID,
		SKU:                in.SKU,
		ProductName:        in.ProductName,
		Quantity:           in.Quantity,
		UnitPrice:          in.UnitPrice,
		TotalPrice:         in.TotalPrice,
		ImageURL:           in.ImageURL,
		VariantDescription: in.VariantDescription,
		Notes:              in.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
