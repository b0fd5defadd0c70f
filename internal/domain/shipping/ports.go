package shipping

import (
	"context"

	"github.com/google/uuid"
)

// CarrierClient is the carrier API port
type CarrierClient interface {
	// BaseURL returns the endpoint used for creds, part of the token identity
	BaseURL(creds CarrierCredentials) string

	// Authenticate exchanges client credentials for a token
	Authenticate(ctx context.Context, creds CarrierCredentials) (AuthToken, error)

	// CreateShipment submits a shipment and returns the parsed confirmation
	CreateShipment(ctx context.Context, token AuthToken, creds CarrierCredentials, shipment Shipment) (*ShipmentConfirmation, error)
}

// ProfileRepository loads tenant shipper profiles
type ProfileRepository interface {
	// FindByTenant returns shared.ErrNotFound when the tenant has none
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ShipperProfile, error)
	Save(ctx context.Context, profile *ShipperProfile) error
}

// CarrierCredentialRepository loads stored carrier credentials
type CarrierCredentialRepository interface {
	// FindForTenant returns the tenant override, shared.ErrNotFound when absent
	FindForTenant(ctx context.Context, tenantID uuid.UUID) (*CarrierCredentials, error)

	// FindDefault returns the tenant-less row, shared.ErrNotFound when absent
	FindDefault(ctx context.Context) (*CarrierCredentials, error)

	// Save stores credentials for tenantID, or the default when tenantID is nil
	Save(ctx context.Context, tenantID *uuid.UUID, creds CarrierCredentials) error
}

// LabelArchive copies a carrier label into durable storage
type LabelArchive interface {
	// Archive stores the document at sourceURL and returns its storage key
	Archive(ctx context.Context, tenantID, orderID uuid.UUID, trackingNumber, sourceURL string) (string, error)

	// URL returns a time-limited download URL for a stored key
	URL(ctx context.Context, key string) (string, error)
}
