package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/order"
	"go.uber.org/zap"
)

// CarrierOptionsService reads and patches the operator's carrier selections on an order
type CarrierOptionsService struct {
	orders order.Repository
	logger *zap.Logger
}

// NewCarrierOptionsService creates a CarrierOptionsService
func NewCarrierOptionsService(orders order.Repository, logger *zap.Logger) *CarrierOptionsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarrierOptionsService{orders: orders, logger: logger}
}

// Catalog lists the values every enumerated option accepts
func (s *CarrierOptionsService) Catalog() order.OptionCatalog {
	return order.Catalog()
}

// Get returns the current options of an order
func (s *CarrierOptionsService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (order.CarrierOptions, error) {
	o, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return order.CarrierOptions{}, err
	}
	return o.CarrierOptions, nil
}

// Update applies patch and stores the result. Nothing is written when any
// field is invalid.
func (s *CarrierOptionsService) Update(ctx context.Context, tenantID, orderID uuid.UUID, patch order.OptionsPatch) (order.CarrierOptions, error) {
	o, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return order.CarrierOptions{}, err
	}
	next, err := patch.Apply(o.CarrierOptions)
	if err != nil {
		return order.CarrierOptions{}, err
	}
	if err := s.orders.SaveCarrierOptions(ctx, tenantID, orderID, next); err != nil {
		return order.CarrierOptions{}, err
	}
	s.logger.Info("Carrier options updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
	)
	return next, nil
}
