package dto

import (
	"time"

	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SyncOrdersRequest optionally narrows a sync to one source
type SyncOrdersRequest struct {
	Source string `json:"source" binding:"omitempty,max=32,alphanum"`
}

// DimensionsRequest is the nested package dimensions patch
type DimensionsRequest struct {
	Length *decimal.Decimal `json:"length"`
	Width  *decimal.Decimal `json:"width"`
	Height *decimal.Decimal `json:"height"`
	Unit   *string          `json:"unit"`
}

// CarrierOptionsRequest is a partial update of an order's carrier options.
// Omitted fields are left unchanged and empty strings clear a field.
type CarrierOptionsRequest struct {
	ServiceType          *string            `json:"serviceType"`
	PackagingType        *string            `json:"packagingType"`
	PickupType           *string            `json:"pickupType"`
	PaymentType          *string            `json:"paymentType"`
	DutiesPaymentType    *string            `json:"dutiesPaymentType"`
	WeightKG             *decimal.Decimal   `json:"weightKg"`
	Dimensions           *DimensionsRequest `json:"dimensions"`
	CommodityDescription *string            `json:"commodityDescription" binding:"omitempty,max=450"`
	HarmonizedCode       *string            `json:"harmonizedCode" binding:"omitempty,max=14"`
	CountryOfManufacture *string            `json:"countryOfManufacture"`
	CustomsValue         *decimal.Decimal   `json:"customsValue"`
	CustomsCurrency      *string            `json:"customsCurrency"`
	SignatureType        *string            `json:"signatureType"`
	TermsOfSale          *string            `json:"termsOfSale"`
}

// ToPatch converts the request into a domain patch
func (r CarrierOptionsRequest) ToPatch() order.OptionsPatch {
	p := order.OptionsPatch{
		ServiceType:          r.ServiceType,
		PackagingType:        r.PackagingType,
		PickupType:           r.PickupType,
		PaymentType:          r.PaymentType,
		DutiesPaymentType:    r.DutiesPaymentType,
		WeightKG:             r.WeightKG,
		CommodityDescription: r.CommodityDescription,
		HarmonizedCode:       r.HarmonizedCode,
		CountryOfManufacture: r.CountryOfManufacture,
		CustomsValue:         r.CustomsValue,
		CustomsCurrency:      r.CustomsCurrency,
		SignatureType:        r.SignatureType,
		TermsOfSale:          r.TermsOfSale,
	}
	if r.Dimensions != nil {
		p.DimensionLength = r.Dimensions.Length
		p.DimensionWidth = r.Dimensions.Width
		p.DimensionHeight = r.Dimensions.Height
		p.DimensionUnit = r.Dimensions.Unit
	}
	return p
}

// GenerateLabelRequest carries per-request label switches
type GenerateLabelRequest struct {
	DisableETD bool `json:"disableEtd"`
}

// OrderResponse is the order view returned after a resync
type OrderResponse struct {
	ID              string               `json:"id"`
	SourceName      string               `json:"sourceName"`
	SourceKey       string               `json:"sourceKey"`
	CustomerName    string               `json:"customerName"`
	CustomerEmail   *string              `json:"customerEmail,omitempty"`
	CustomerPhone   *string              `json:"customerPhone,omitempty"`
	Status          *string              `json:"status,omitempty"`
	Currency        *string              `json:"currency,omitempty"`
	TotalPrice      *decimal.Decimal     `json:"totalPrice,omitempty"`
	ShippingAddress *valueobject.Address `json:"shippingAddress,omitempty"`
	PlacedAt        *time.Time           `json:"placedAt,omitempty"`
	PackingStatus   *string              `json:"packingStatus,omitempty"`
	ProductionNotes *string              `json:"productionNotes,omitempty"`
	CarrierOptions  order.CarrierOptions `json:"carrierOptions"`
	TrackingNumber  *string              `json:"trackingNumber,omitempty"`
	ShipmentStatus  *string              `json:"shipmentStatus,omitempty"`
	SyncStatus      string               `json:"syncStatus"`
	SyncedAt        *time.Time           `json:"syncedAt,omitempty"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// NewOrderResponse builds the order view
func NewOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID.String(),
		SourceName:      o.SourceName.String(),
		SourceKey:       o.SourceKey,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		Status:          o.Status,
		Currency:        o.Currency,
		TotalPrice:      o.TotalPrice,
		ShippingAddress: o.ShippingAddress,
		PlacedAt:        o.PlacedAt,
		PackingStatus:   o.PackingStatus,
		ProductionNotes: o.ProductionNotes,
		CarrierOptions:  o.CarrierOptions,
		TrackingNumber:  o.Shipment.TrackingNumber,
		ShipmentStatus:  o.Shipment.ShipmentStatus,
		SyncStatus:      o.SyncStatus,
		SyncedAt:        o.SyncedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
