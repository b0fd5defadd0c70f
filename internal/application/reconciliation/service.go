// Package reconciliation merges marketplace orders into the order store
// without overwriting operator-owned fields.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CredentialSource resolves marketplace credentials for a tenant
type CredentialSource interface {
	ResolveMarketplace(ctx context.Context, tenantID uuid.UUID, source integration.SourceName) (integration.MarketplaceCredentials, error)
}

// Metrics receives reconciliation counters
type Metrics interface {
	RecordOrderReconciled(ctx context.Context, source string, created bool)
	RecordOrderReconcileFailure(ctx context.Context, source string)
	RecordSourceFetchFailure(ctx context.Context, source string)
}

type nopMetrics struct{}

func (nopMetrics) RecordOrderReconciled(context.Context, string, bool)  {}
func (nopMetrics) RecordOrderReconcileFailure(context.Context, string) {}
func (nopMetrics) RecordSourceFetchFailure(context.Context, string)    {}

// OrderFailure records one order that could not be reconciled
type OrderFailure struct {
	Source    integration.SourceName `json:"source"`
	SourceKey string                 `json:"sourceKey"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
}

// SourceError records one source whose fetch failed
type SourceError struct {
	Source          integration.SourceName `json:"source"`
	Code            string                 `json:"code"`
	Message         string                 `json:"message"`
	ProviderCode    string                 `json:"providerCode,omitempty"`
	ProviderMessage string                 `json:"providerMessage,omitempty"`

	err *shared.DomainError
}

// Result counts newly created and updated orders
type Result struct {
	Added    int            `json:"added"`
	Updated  int            `json:"updated"`
	Failures []OrderFailure `json:"failures,omitempty"`
}

// SyncResult is the outcome of syncing one or more sources
type SyncResult struct {
	Added    int            `json:"added"`
	Updated  int            `json:"updated"`
	Total    int            `json:"total"`
	Failures []OrderFailure `json:"failures,omitempty"`
	Errors   []SourceError  `json:"errors,omitempty"`
}

// Option configures the Service
type Option func(*Service)

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithProtectedFields overrides the fields carried forward on merge
func WithProtectedFields(p order.ProtectedFields) Option {
	return func(s *Service) {
		s.protected = p
	}
}

// Service is the order reconciliation engine
type Service struct {
	repo      order.Repository
	adapters  *integration.AdapterRegistry
	creds     CredentialSource
	protected order.ProtectedFields
	metrics   Metrics
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a reconciliation Service
func NewService(
	repo order.Repository,
	adapters *integration.AdapterRegistry,
	creds CredentialSource,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		repo:      repo,
		adapters:  adapters,
		creds:     creds,
		protected: order.OperatorOwnedFields(),
		metrics:   nopMetrics{},
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconcile upserts each bundle independently. A failing order is recorded in
// Result.Failures and never stops the rest of the batch.
func (s *Service) Reconcile(ctx context.Context, tenantID uuid.UUID, bundles []integration.OrderBundle) Result {
	log := logger.WithLogger(ctx, s.logger)

	var res Result
	for _, b := range bundles {
		created, err := s.reconcileOne(ctx, tenantID, b)
		source := b.Order.SourceName.String()
		if err != nil {
			de := toDomainError(err)
			res.Failures = append(res.Failures, OrderFailure{
				Source:    b.Order.SourceName,
				SourceKey: b.Order.SourceKey,
				Code:      de.Code,
				Message:   de.Error(),
			})
			s.metrics.RecordOrderReconcileFailure(ctx, source)
			log.Warn("Order reconciliation failed",
				zap.String("source", source),
				zap.String("source_key", b.Order.SourceKey),
				zap.Error(err),
			)
			continue
		}
		if created {
			res.Added++
		} else {
			res.Updated++
		}
		s.metrics.RecordOrderReconciled(ctx, source, created)
	}

	log.Info("Order batch reconciled",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("failed", len(res.Failures)),
	)
	return res
}

// reconcileOne returns true when a new order was inserted
func (s *Service) reconcileOne(ctx context.Context, tenantID uuid.UUID, b integration.OrderBundle) (bool, error) {
	if err := b.Validate(); err != nil {
		return false, err
	}
	now := s.now()
	incoming := order.NewFromNormalized(tenantID, b.Order, now)

	existing, err := s.repo.FindBySourceKey(ctx, tenantID, b.Order.SourceName, b.Order.SourceKey)
	if errors.Is(err, shared.ErrNotFound) {
		err = s.repo.Create(ctx, incoming, newItems(incoming.ID, b.Items, now))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, order.ErrDuplicateOrder) {
			return false, err
		}
		// a concurrent sync inserted the same order first; merge onto it
		existing, err = s.repo.FindBySourceKey(ctx, tenantID, b.Order.SourceName, b.Order.SourceKey)
	}
	if err != nil {
		return false, err
	}

	merged := order.MergeOrder(existing, incoming, s.protected)
	merged.MarkSynced(now)

	current, err := s.repo.FindItems(ctx, existing.ID)
	if err != nil {
		return false, err
	}
	items := order.MergeItems(existing.ID, current, newItems(existing.ID, b.Items, now), now)

	if err := s.repo.SaveSynced(ctx, merged, items); err != nil {
		return false, err
	}
	return false, nil
}

func newItems(orderID uuid.UUID, in []integration.NormalizedLineItem, now time.Time) []order.OrderItem {
	out := make([]order.OrderItem, 0, len(in))
	for _, it := range in {
		out = append(out, order.NewItemFromNormalized(orderID, it, now))
	}
	return out
}

// SyncTenant fetches every configured source (or only source when given) and
// reconciles the results. The returned error is nil on full success, a
// PARTIAL_FAILURE DomainError when some units failed and some succeeded, and
// the first source's error when nothing succeeded.
func (s *Service) SyncTenant(ctx context.Context, tenantID uuid.UUID, source *integration.SourceName) (*SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "sync_tenant",
		telemetry.WithAttribute("tenant_id", tenantID.String()))
	defer span.End()

	sources := s.adapters.Sources()
	if source != nil {
		if _, err := s.adapters.Get(*source); err != nil {
			return nil, toDomainError(err)
		}
		sources = []integration.SourceName{*source}
	}

	res := &SyncResult{}
	emptySources := 0
	for _, src := range sources {
		bundles, err := s.fetch(ctx, tenantID, src)
		if err != nil {
			de := toDomainError(err)
			res.Errors = append(res.Errors, SourceError{
				Source:          src,
				Code:            de.Code,
				Message:         de.Message,
				ProviderCode:    de.ProviderCode,
				ProviderMessage: de.ProviderMessage,
				err:             de,
			})
			s.metrics.RecordSourceFetchFailure(ctx, src.String())
			s.logger.Warn("Marketplace fetch failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("source", src.String()),
				zap.Error(err),
			)
			continue
		}
		if len(bundles) == 0 {
			emptySources++
			continue
		}
		r := s.Reconcile(ctx, tenantID, bundles)
		res.Added += r.Added
		res.Updated += r.Updated
		res.Failures = append(res.Failures, r.Failures...)
	}
	res.Total = res.Added + res.Updated
	telemetry.SetAttributes(span, "added", res.Added, "updated", res.Updated,
		"failed_sources", len(res.Errors), "failed_orders", len(res.Failures))

	failed := len(res.Errors) + len(res.Failures)
	if failed == 0 {
		return res, nil
	}
	if res.Total > 0 || emptySources > 0 {
		return res, shared.NewPartialFailure(
			fmt.Sprintf("%d of %d units failed", failed, failed+res.Total+emptySources),
			partialFields(res),
		)
	}
	if len(res.Errors) > 0 {
		return res, res.Errors[0].err
	}
	return res, shared.NewInternalError("No order could be reconciled", nil)
}

func (s *Service) fetch(ctx context.Context, tenantID uuid.UUID, src integration.SourceName) ([]integration.OrderBundle, error) {
	adapter, err := s.adapters.Get(src)
	if err != nil {
		return nil, err
	}
	creds, err := s.creds.ResolveMarketplace(ctx, tenantID, src)
	if err != nil {
		return nil, err
	}
	return adapter.Fetch(ctx, tenantID, creds)
}

func partialFields(res *SyncResult) []shared.FieldError {
	out := make([]shared.FieldError, 0, len(res.Errors)+len(res.Failures))
	for _, e := range res.Errors {
		out = append(out, shared.FieldError{Field: e.Source.String(), Message: e.Message})
	}
	for _, f := range res.Failures {
		out = append(out, shared.FieldError{Field: f.Source.String() + ":" + f.SourceKey, Message: f.Message})
	}
	return out
}

// ResyncOrder re-fetches one order from its source and reconciles it.
// A fetch failure stamps the order's sync status and is returned.
func (s *Service) ResyncOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*order.Order, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "resync_order",
		telemetry.WithAttribute("order_id", orderID.String()))
	defer span.End()

	o, err := s.repo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapters.Get(o.SourceName)
	if err != nil {
		return nil, toDomainError(err)
	}
	creds, err := s.creds.ResolveMarketplace(ctx, tenantID, o.SourceName)
	if err != nil {
		return nil, err
	}

	bundle, err := adapter.FetchOne(ctx, tenantID, creds, o.SourceKey)
	if err != nil {
		de := toDomainError(err)
		if errors.Is(err, integration.ErrOrderNotFound) {
			de = shared.NewNotFoundError("marketplace order", o.SourceKey).WithCause(err)
		}
		if markErr := s.repo.MarkSyncStatus(ctx, tenantID, o.ID, order.SyncStatusError(de.Code), s.now()); markErr != nil {
			s.logger.Error("Failed to record sync error",
				zap.String("order_id", o.ID.String()),
				zap.Error(markErr),
			)
		}
		return nil, de
	}

	if bundle.Order.SourceKey != o.SourceKey || bundle.Order.SourceName != o.SourceName {
		return nil, shared.NewMalformedResponseError(
			fmt.Sprintf("marketplace returned %s/%s for %s/%s",
				bundle.Order.SourceName, bundle.Order.SourceKey, o.SourceName, o.SourceKey), nil)
	}

	if _, err := s.reconcileOne(ctx, tenantID, *bundle); err != nil {
		return nil, toDomainError(err)
	}
	return s.repo.FindByID(ctx, tenantID, orderID)
}
