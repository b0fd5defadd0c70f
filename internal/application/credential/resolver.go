// Package credential resolves the effective marketplace and carrier
// credentials and shipper profile for a tenant.
package credential

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"go.uber.org/zap"
)

// Defaults are the process-wide fallbacks loaded from configuration
type Defaults struct {
	Carrier     *shipping.CarrierCredentials
	Marketplace map[integration.SourceName]integration.MarketplaceCredentials
}

// Resolver picks tenant overrides first and process-wide defaults second.
// It fails closed: incomplete credentials are never returned.
type Resolver struct {
	carrierRepo shipping.CarrierCredentialRepository
	profileRepo shipping.ProfileRepository
	marketRepo  integration.CredentialRepository
	defaults    Defaults
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewResolver creates a Resolver
func NewResolver(
	carrierRepo shipping.CarrierCredentialRepository,
	profileRepo shipping.ProfileRepository,
	marketRepo integration.CredentialRepository,
	defaults Defaults,
	logger *zap.Logger,
) *Resolver {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		carrierRepo: carrierRepo,
		profileRepo: profileRepo,
		marketRepo:  marketRepo,
		defaults:    defaults,
		validate:    v,
		logger:      logger,
	}
}

// Resolve returns the carrier credentials and shipper profile the label
// service needs. The profile is checked for presence only; completeness is
// part of label validation.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID) (shipping.CarrierCredentials, *shipping.ShipperProfile, error) {
	creds, err := r.ResolveCarrier(ctx, tenantID)
	if err != nil {
		return shipping.CarrierCredentials{}, nil, err
	}
	profile, err := r.profileRepo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shipping.CarrierCredentials{}, nil, shared.NewConfigError("shipperProfile", "is not configured for this tenant")
		}
		return shipping.CarrierCredentials{}, nil, err
	}
	return creds, profile, nil
}

// ResolveCarrier returns the tenant's carrier credentials, else the stored
// default, else the configured default.
func (r *Resolver) ResolveCarrier(ctx context.Context, tenantID uuid.UUID) (shipping.CarrierCredentials, error) {
	creds, err := r.carrierRepo.FindForTenant(ctx, tenantID)
	switch {
	case err == nil:
		creds.Origin = shipping.CredentialOriginTenant
	case errors.Is(err, shared.ErrNotFound):
		creds, err = r.carrierRepo.FindDefault(ctx)
		if errors.Is(err, shared.ErrNotFound) {
			creds, err = r.defaults.Carrier, nil
		}
		if err != nil {
			return shipping.CarrierCredentials{}, err
		}
		if creds == nil {
			return shipping.CarrierCredentials{}, shared.NewConfigError("carrier.apiKey", "no tenant or default carrier credentials configured")
		}
		c := *creds
		c.Origin = shipping.CredentialOriginDefault
		creds = &c
	default:
		return shipping.CarrierCredentials{}, err
	}

	if err := r.check("carrier", creds); err != nil {
		r.logger.Warn("Carrier credentials incomplete",
			zap.String("tenant_id", tenantID.String()),
			zap.String("origin", string(creds.Origin)),
			zap.Error(err),
		)
		return shipping.CarrierCredentials{}, err
	}
	return *creds, nil
}

// ResolveMarketplace returns the tenant's credentials for source, else the
// stored default, else the configured default.
func (r *Resolver) ResolveMarketplace(ctx context.Context, tenantID uuid.UUID, source integration.SourceName) (integration.MarketplaceCredentials, error) {
	prefix := "marketplace." + source.String()

	creds, err := r.marketRepo.FindForTenant(ctx, tenantID, source)
	if errors.Is(err, shared.ErrNotFound) {
		creds, err = r.marketRepo.FindDefault(ctx, source)
		if errors.Is(err, shared.ErrNotFound) {
			err = nil
			if d, ok := r.defaults.Marketplace[source]; ok {
				creds = &d
			}
		}
	}
	if err != nil {
		return integration.MarketplaceCredentials{}, err
	}
	if creds == nil {
		return integration.MarketplaceCredentials{}, shared.NewConfigError(prefix+".appKey", "no tenant or default credentials configured")
	}
	if err := r.check(prefix, creds); err != nil {
		return integration.MarketplaceCredentials{}, err
	}
	return *creds, nil
}

// check validates s and reports the first failing field as a config error
func (r *Resolver) check(prefix string, s any) error {
	err := r.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "is required"
		if fe.Tag() != "required" {
			msg = "is invalid (" + fe.Tag() + ")"
		}
		return shared.NewConfigError(prefix+"."+fe.Field(), msg)
	}
	return err
}
