package integration

import (
	"context"

	"github.com/google/uuid"
)

// CredentialRepository loads stored marketplace credentials
type CredentialRepository interface {
	// FindForTenant returns the tenant's credentials for source, shared.ErrNotFound when absent
	FindForTenant(ctx context.Context, tenantID uuid.UUID, source SourceName) (*MarketplaceCredentials, error)

	// FindDefault returns the tenant-less credentials for source, shared.ErrNotFound when absent
	FindDefault(ctx context.Context, source SourceName) (*MarketplaceCredentials, error)

	// ListTenants returns every tenant with at least one configured source
	ListTenants(ctx context.Context) ([]uuid.UUID, error)

	// Save stores credentials for tenantID, or the default when tenantID is nil
	Save(ctx context.Context, tenantID *uuid.UUID, source SourceName, creds MarketplaceCredentials) error
}
