// Package shipping drives label generation and operator carrier options.
package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReasonLabelPersistFailed marks an accepted shipment whose result could not be stored
const ReasonLabelPersistFailed = "LABEL_PERSIST_FAILED"

// DefaultTokenMargin is subtracted from the carrier-reported token expiry
const DefaultTokenMargin = 60 * time.Second

// CredentialResolver supplies carrier credentials and the shipper profile
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID) (shipping.CarrierCredentials, *shipping.ShipperProfile, error)
}

// Metrics receives label counters
type Metrics interface {
	RecordLabelGenerated(ctx context.Context, kind string)
	RecordLabelFailure(ctx context.Context, state string)
	RecordTokenRefresh(ctx context.Context)
}

type nopMetrics struct{}

func (nopMetrics) RecordLabelGenerated(context.Context, string) {}
func (nopMetrics) RecordLabelFailure(context.Context, string)   {}
func (nopMetrics) RecordTokenRefresh(context.Context)           {}

// LabelConfig holds label service settings
type LabelConfig struct {
	// TokenMargin is how long before expiry a cached token stops being used
	TokenMargin time.Duration
	// ElectronicTradeDocuments is the default ETD setting for international shipments
	ElectronicTradeDocuments bool
}

// GenerateLabelInput is one label request
type GenerateLabelInput struct {
	TenantID   uuid.UUID
	OrderID    uuid.UUID
	DisableETD bool
}

// LabelResult is returned on success
type LabelResult struct {
	TrackingNumber   string    `json:"trackingNumber"`
	LabelURL         string    `json:"labelUrl"`
	ArchivedLabelURL string    `json:"archivedLabelUrl,omitempty"`
	MasterFormID     string    `json:"masterFormId,omitempty"`
	ShipmentStatus   string    `json:"shipmentStatus"`
	ShippedAt        time.Time `json:"shippedAt"`
	Kind             string    `json:"kind"`
	Warnings         []string  `json:"warnings,omitempty"`
}

// LabelService runs the label state machine for one order at a time. The
// token cache is the only state shared between requests.
type LabelService struct {
	orders  order.Repository
	creds   CredentialResolver
	carrier shipping.CarrierClient
	tokens  shipping.TokenCache
	archive shipping.LabelArchive
	clock   shipping.Clock
	metrics Metrics
	cfg     LabelConfig
	logger  *zap.Logger
}

// LabelOption configures a LabelService
type LabelOption func(*LabelService)

// WithArchive enables copying labels into durable storage
func WithArchive(a shipping.LabelArchive) LabelOption {
	return func(s *LabelService) {
		s.archive = a
	}
}

// WithLabelClock overrides the clock used for token expiry and timestamps
func WithLabelClock(c shipping.Clock) LabelOption {
	return func(s *LabelService) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLabelMetrics sets the metrics sink
func WithLabelMetrics(m Metrics) LabelOption {
	return func(s *LabelService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewLabelService creates a LabelService
func NewLabelService(
	orders order.Repository,
	creds CredentialResolver,
	carrier shipping.CarrierClient,
	tokens shipping.TokenCache,
	cfg LabelConfig,
	log *zap.Logger,
	opts ...LabelOption,
) *LabelService {
	if cfg.TokenMargin <= 0 {
		cfg.TokenMargin = DefaultTokenMargin
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &LabelService{
		orders:  orders,
		creds:   creds,
		carrier: carrier,
		tokens:  tokens,
		clock:   shipping.SystemClock{},
		metrics: nopMetrics{},
		cfg:     cfg,
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateLabel validates the order, submits it to the carrier and stores the
// tracking number and label URL on the order.
func (s *LabelService) GenerateLabel(ctx context.Context, in GenerateLabelInput) (*LabelResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "label", "generate",
		telemetry.WithAttribute("order_id", in.OrderID.String()))
	defer span.End()

	log := logger.WithLogger(ctx, s.logger).With(zap.String("order_id", in.OrderID.String()))
	req := shipping.NewLabelRequest(s.clock.Now)

	fail := func(err error) error {
		req.Fail(err)
		s.metrics.RecordLabelFailure(ctx, req.FailedIn().String())
		telemetry.RecordError(span, err)
		log.Error("Label request failed",
			zap.String("state", req.FailedIn().String()),
			zap.Error(err),
		)
		return err
	}
	advance := func(to shipping.LabelState) {
		from := req.State()
		if err := req.Advance(to); err != nil {
			log.Error("Illegal label transition", zap.Error(err))
			return
		}
		log.Debug("Label state changed", zap.String("from", from.String()), zap.String("to", to.String()))
	}

	// Draft: load and resolve everything validation needs
	o, err := s.orders.FindByID(ctx, in.TenantID, in.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fail(shared.NewNotFoundError("order", in.OrderID.String()))
		}
		return nil, fail(err)
	}
	creds, profile, err := s.creds.Resolve(ctx, in.TenantID)
	if err != nil {
		return nil, fail(err)
	}
	if err := shipping.ValidateProfile(profile); err != nil {
		return nil, fail(err)
	}

	shipment, warnings, err := shipping.PrepareShipment(shipping.PrepareInput{
		Order:                    o,
		Profile:                  profile,
		Credentials:              creds,
		ShipDate:                 s.clock.Now(),
		ElectronicTradeDocuments: s.cfg.ElectronicTradeDocuments && !in.DisableETD,
	})
	if err != nil {
		return nil, fail(err)
	}
	advance(shipping.StateValidated)
	telemetry.SetAttribute(span, "shipment_kind", string(shipment.Kind()))

	token, tokenKey, err := s.token(ctx, creds)
	if err != nil {
		return nil, fail(err)
	}
	advance(shipping.StateAuthenticated)

	confirmation, err := s.carrier.CreateShipment(ctx, token, creds, shipment)
	if err != nil {
		if errors.Is(err, shared.ErrAuth) {
			// the carrier revoked the token early, make the next request re-authenticate
			if delErr := s.tokens.Delete(ctx, tokenKey); delErr != nil {
				log.Warn("Failed to evict carrier token", zap.Error(delErr))
			}
		}
		return nil, fail(carrierError(err))
	}
	advance(shipping.StateSubmitted)

	outcome, err := confirmation.Resolve()
	if err != nil {
		return nil, fail(err)
	}
	warnings = append(warnings, outcome.Warnings...)
	for _, w := range outcome.Warnings {
		log.Warn("Carrier warning", zap.String("tracking_number", outcome.TrackingNumber), zap.String("warning", w))
	}

	now := s.clock.Now()
	status := order.ShipmentStatusLabelGenerated
	result := order.ShipmentResult{
		TrackingNumber: &outcome.TrackingNumber,
		LabelURL:       &outcome.LabelURL,
		ShipmentStatus: &status,
		ShippedAt:      &now,
	}
	if outcome.MasterFormID != "" {
		result.MasterFormID = &outcome.MasterFormID
	}

	var archivedURL string
	if s.archive != nil {
		key, url, archErr := s.archiveLabel(ctx, o, outcome)
		if archErr != nil {
			log.Warn("Label archive failed", zap.Error(archErr))
			warnings = append(warnings, "label archive failed: "+archErr.Error())
		} else {
			result.ArchivedLabelKey = &key
			archivedURL = url
		}
	}

	if err := s.orders.SaveShipment(ctx, in.TenantID, o.ID, result); err != nil {
		return nil, fail(shared.NewInternalError("Label was generated but could not be saved", err).
			WithDetail("reason", ReasonLabelPersistFailed).
			WithDetail("trackingNumber", outcome.TrackingNumber).
			WithDetail("labelUrl", outcome.LabelURL))
	}
	o.RecordShipment(result, now)
	advance(shipping.StateLabeled)
	s.metrics.RecordLabelGenerated(ctx, string(shipment.Kind()))
	telemetry.SetOK(span)

	log.Info("Label generated",
		zap.String("tracking_number", outcome.TrackingNumber),
		zap.String("kind", string(shipment.Kind())),
		zap.Int("warnings", len(warnings)),
	)

	return &LabelResult{
		TrackingNumber:   outcome.TrackingNumber,
		LabelURL:         outcome.LabelURL,
		ArchivedLabelURL: archivedURL,
		MasterFormID:     outcome.MasterFormID,
		ShipmentStatus:   status,
		ShippedAt:        now,
		Kind:             string(shipment.Kind()),
		Warnings:         warnings,
	}, nil
}

// token returns a cached token that is still valid after the safety margin,
// authenticating only when there is none. Concurrent refreshes may race; the
// last write wins and both tokens are valid.
func (s *LabelService) token(ctx context.Context, creds shipping.CarrierCredentials) (shipping.AuthToken, string, error) {
	key := shipping.TokenKey(creds, s.carrier.BaseURL(creds))

	cached, ok, err := s.tokens.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Token cache read failed", zap.Error(err))
	} else if ok && cached.ValidAt(s.clock.Now(), s.cfg.TokenMargin) {
		return cached, key, nil
	}

	fresh, err := s.carrier.Authenticate(ctx, creds)
	if err != nil {
		return shipping.AuthToken{}, key, carrierError(err)
	}
	s.metrics.RecordTokenRefresh(ctx)
	if err := s.tokens.Set(ctx, key, fresh); err != nil {
		s.logger.Warn("Token cache write failed", zap.Error(err))
	}
	return fresh, key, nil
}

func (s *LabelService) archiveLabel(ctx context.Context, o *order.Order, outcome *shipping.LabelOutcome) (string, string, error) {
	key, err := s.archive.Archive(ctx, o.TenantID, o.ID, outcome.TrackingNumber, outcome.LabelURL)
	if err != nil {
		return "", "", err
	}
	url, err := s.archive.URL(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// carrierError keeps carrier DomainErrors and wraps anything else as upstream
func carrierError(err error) error {
	if _, ok := shared.AsDomainError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return shared.NewUpstreamError(0, "TIMEOUT", "carrier request did not complete", err)
	}
	return shared.NewUpstreamError(0, "", err.Error(), err)
}
