package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Result values for orders_synced_total
const (
	ResultCreated = "created"
	ResultUpdated = "updated"
)

// OrderMetrics counts reconciliation and label outcomes. It satisfies the
// metrics ports of the reconciliation and label services and the scheduler.
type OrderMetrics struct {
	ordersSynced      *Counter
	syncFailures      *Counter
	fetchFailures     *Counter
	labelsGenerated   *Counter
	labelFailures     *Counter
	tokenRefreshes    *Counter
	syncRunDuration   *Histogram
	syncRunsCompleted *Counter
}

// NewOrderMetrics registers every instrument on meter
func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &OrderMetrics{}
	counters := []struct {
		dst        **Counter
		name, desc string
		unit       string
	}{
		{&m.ordersSynced, "orders_synced_total", "Orders written by reconciliation", "{orders}"},
		{&m.syncFailures, "order_sync_failures_total", "Orders that failed to reconcile", "{orders}"},
		{&m.fetchFailures, "order_source_fetch_failures_total", "Marketplace fetches that failed", "{fetches}"},
		{&m.labelsGenerated, "labels_generated_total", "Carrier labels generated", "{labels}"},
		{&m.labelFailures, "label_failures_total", "Label requests that ended in Failed", "{labels}"},
		{&m.tokenRefreshes, "carrier_token_refresh_total", "Carrier token exchanges", "{tokens}"},
		{&m.syncRunsCompleted, "order_sync_runs_total", "Scheduled tenant sync runs", "{runs}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	h, err := NewHistogram(meter, "order_sync_run_duration_seconds", "Duration of one tenant sync run", UpstreamDurationBuckets...)
	if err != nil {
		return nil, err
	}
	m.syncRunDuration = h
	return m, nil
}

// RecordOrderReconciled counts an order created or updated by sync
func (m *OrderMetrics) RecordOrderReconciled(ctx context.Context, source string, created bool) {
	result := ResultUpdated
	if created {
		result = ResultCreated
	}
	m.ordersSynced.Inc(ctx, AttrSource.String(source), AttrResult.String(result))
}

// RecordOrderReconcileFailure counts one order that failed to persist
func (m *OrderMetrics) RecordOrderReconcileFailure(ctx context.Context, source string) {
	m.syncFailures.Inc(ctx, AttrSource.String(source))
}

// RecordSourceFetchFailure counts a marketplace fetch that failed outright
func (m *OrderMetrics) RecordSourceFetchFailure(ctx context.Context, source string) {
	m.fetchFailures.Inc(ctx, AttrSource.String(source))
}

// RecordLabelGenerated counts a label by shipment kind (domestic, international)
func (m *OrderMetrics) RecordLabelGenerated(ctx context.Context, kind string) {
	m.labelsGenerated.Inc(ctx, AttrKind.String(kind))
}

// RecordLabelFailure counts a failed label request by the state it failed in
func (m *OrderMetrics) RecordLabelFailure(ctx context.Context, state string) {
	m.labelFailures.Inc(ctx, AttrState.String(state))
}

// RecordTokenRefresh counts a carrier token exchange
func (m *OrderMetrics) RecordTokenRefresh(ctx context.Context) {
	m.tokenRefreshes.Inc(ctx)
}

// RecordSyncRun records a scheduled sync job outcome
func (m *OrderMetrics) RecordSyncRun(ctx context.Context, status string, d time.Duration) {
	m.syncRunsCompleted.Inc(ctx, AttrJobState.String(status))
	m.syncRunDuration.RecordDuration(ctx, d, AttrJobState.String(status))
}
