package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestInstrumentDB_Disabled(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, InstrumentDB(db, DBTracingConfig{Enabled: false}, nil))
	assert.Nil(t, db.Callback().Create().Get("orderdesk_timing:before_create"))
}

func TestInstrumentDB_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	db := openTestDB(t)
	require.NoError(t, InstrumentDB(db, DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
		DBName:          "orderdesk",
	}, nil))

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	span.End()

	var dbSpan sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() != "parent" {
			dbSpan = s
		}
	}
	require.NotNil(t, dbSpan, "otelgorm span expected")
	assert.NotNil(t, db.Callback().Create().Get("orderdesk_timing:after_create"))
}

func TestRegisterPoolMetrics(t *testing.T) {
	reader, mp := newTestMeter(t)
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	require.NoError(t, RegisterPoolMetrics(mp.Meter("db"), sqlDB))
	data := collect(t, reader)
	assert.Contains(t, data, "db_pool_connections")
	assert.Contains(t, data, "db_pool_wait_total")

	assert.ErrorIs(t, RegisterPoolMetrics(nil, sqlDB), ErrMeterNil)
}
