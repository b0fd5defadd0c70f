package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
)

// ErrDuplicateOrder is returned by Create when (tenant, source, source key) already exists
var ErrDuplicateOrder = errors.New("order: duplicate source key")

// Repository defines persistence for orders and their items
type Repository interface {
	// FindByID finds an order for a tenant. Returns shared.ErrNotFound when absent.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindBySourceKey finds an order by its reconciliation identity.
	// Returns shared.ErrNotFound when absent.
	FindBySourceKey(ctx context.Context, tenantID uuid.UUID, source integration.SourceName, sourceKey string) (*Order, error)

	// FindItems returns every item of an order
	FindItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)

	// Create inserts an order with its items in one transaction.
	// Returns ErrDuplicateOrder on a uniqueness violation.
	Create(ctx context.Context, o *Order, items []OrderItem) error

	// SaveSynced writes marketplace-sourced and sync audit columns and upserts
	// items by (order, remote line id). Operator-owned columns and item notes
	// of existing rows are never written.
	SaveSynced(ctx context.Context, o *Order, items []OrderItem) error

	// MarkSyncStatus stamps sync audit columns only
	MarkSyncStatus(ctx context.Context, tenantID, id uuid.UUID, status string, at time.Time) error

	// SaveCarrierOptions writes the operator carrier selections
	SaveCarrierOptions(ctx context.Context, tenantID, id uuid.UUID, opts CarrierOptions) error

	// SaveShipment writes the label result columns
	SaveShipment(ctx context.Context, tenantID, id uuid.UUID, result ShipmentResult) error
}
