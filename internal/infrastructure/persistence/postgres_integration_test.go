//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/integration"
	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shipping"
	"github.com/orderdesk/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a disposable PostgreSQL container with every migration applied
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("orderdesk_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestPostgres_OrderRepository(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	o, items := seedOrder(t, repo, tenantID, "PG-1")

	dup := order.NewFromNormalized(tenantID, normalizedOrder("PG-1"), time.Now())
	assert.ErrorIs(t, repo.Create(ctx, dup, nil), order.ErrDuplicateOrder)

	require.NoError(t, db.Table("order_items").Where("id = ?", items[0].ID).Update("notes", "keep me").Error)

	loaded, err := repo.FindByID(ctx, tenantID, o.ID)
	require.NoError(t, err)
	loaded.MarkSynced(time.Now())
	resynced := order.NewItemFromNormalized(o.ID, lineItem("L1", 9), time.Now())
	require.NoError(t, repo.SaveSynced(ctx, loaded, []order.OrderItem{resynced}))

	got, err := repo.FindItems(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].Quantity)
	require.NotNil(t, got[0].Notes)
	assert.Equal(t, "keep me", *got[0].Notes)
}

func TestPostgres_DefaultCredentialsAreUnique(t *testing.T) {
	db := newPostgresDB(t)
	box := testSecretBox(t)
	carriers := NewGormCarrierCredentialRepository(db, box)
	markets := NewGormMarketplaceCredentialRepository(db, box)
	ctx := context.Background()

	creds := shipping.CarrierCredentials{APIKey: "k", SecretKey: "s", AccountNumber: "a"}
	require.NoError(t, carriers.Save(ctx, nil, creds))
	require.NoError(t, carriers.Save(ctx, nil, creds))

	// a raw second default row violates the partial unique index
	err := db.Exec(`INSERT INTO carrier_credentials (id, api_key, secret_key_sealed, account_number)
		VALUES (?, 'k2', 's2', 'a2')`, uuid.New()).Error
	assert.True(t, isUniqueViolation(err))

	tenantID := uuid.New()
	mc := integration.MarketplaceCredentials{AppKey: "k", AppSecret: "s", AccessToken: "t"}
	require.NoError(t, markets.Save(ctx, &tenantID, integration.SourceDouyin, mc))
	tenants, err := markets.ListTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{tenantID}, tenants)
}
