package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds database tracing configuration
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound variables in spans, development only
	SlowQueryThresh time.Duration // queries above this get a slow_query event
	DBName          string
}

type dbContextKey string

const queryStartKey dbContextKey = "otel_query_start"

// InstrumentDB registers the otelgorm plugin plus callbacks that tag the
// current span with rows affected, table and a slow-query event.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerDBCallbacks(db, cfg.SlowQueryThresh); err != nil {
		return err
	}

	logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func registerDBCallbacks(db *gorm.DB, slow time.Duration) error {
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateSpan(tx, slow) }

	cb := db.Callback()
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("orderdesk_timing:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("orderdesk_timing:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("orderdesk_timing:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("orderdesk_timing:before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("orderdesk_timing:before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("orderdesk_timing:before_raw", before) },
		func() error { return cb.Create().After("gorm:create").Register("orderdesk_timing:after_create", after) },
		func() error { return cb.Query().After("gorm:query").Register("orderdesk_timing:after_query", after) },
		func() error { return cb.Update().After("gorm:update").Register("orderdesk_timing:after_update", after) },
		func() error { return cb.Delete().After("gorm:delete").Register("orderdesk_timing:after_delete", after) },
		func() error { return cb.Row().After("gorm:row").Register("orderdesk_timing:after_row", after) },
		func() error { return cb.Raw().After("gorm:raw").Register("orderdesk_timing:after_raw", after) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok || slow <= 0 {
		return
	}
	if elapsed := time.Since(start); elapsed > slow {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", slow.Milliseconds()),
		))
	}
}

// RegisterPoolMetrics publishes connection pool gauges observed on each collection
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) error {
	if meter == nil {
		return ErrMeterNil
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database connections by state"),
		metric.WithUnit("{connections}"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{waits}"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(s.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, conns, waits)
	return err
}
