package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The close table is created by hand here: the upsert relies on the
// (tenant_id, close_date) unique constraint that the SQL migration defines.
func setupCashCloseTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE cash_register_closes (
		id uuid PRIMARY KEY,
		created_at datetime,
		updated_at datetime,
		version integer NOT NULL DEFAULT 1,
		tenant_id uuid NOT NULL,
		created_by uuid,
		close_date datetime NOT NULL,
		cash_total decimal NOT NULL,
		transfer_total decimal NOT NULL,
		card_total decimal NOT NULL,
		other_total decimal NOT NULL,
		grand_total decimal NOT NULL,
		physical_cash_count decimal,
		variance decimal,
		payment_count integer NOT NULL DEFAULT 0,
		notes text,
		closed_by uuid,
		UNIQUE (tenant_id, close_date)
	)`).Error)

	return db
}

func newClose(t *testing.T, tenantID uuid.UUID, date time.Time, cash int64, physical *decimal.Decimal) *ledger.CashRegisterClose {
	t.Helper()

	c, err := ledger.NewCashRegisterClose(tenantID, date, ledger.PaymentBuckets{
		Cash:     decimal.NewFromInt(cash),
		Transfer: decimal.NewFromInt(80000),
		Card:     decimal.Zero,
		Other:    decimal.Zero,
	}, 3, physical, "", uuid.New())
	require.NoError(t, err)
	return c
}

func TestGormCashCloseRepository_UpsertAndFind(t *testing.T) {
	db := setupCashCloseTestDB(t)
	repo := NewGormCashCloseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	first := newClose(t, tenantID, date, 150000, nil)
	require.NoError(t, repo.Upsert(ctx, first))

	t.Run("finds the close by date", func(t *testing.T) {
		found, err := repo.FindByDate(ctx, tenantID, date)
		require.NoError(t, err)
		assert.True(t, found.CashTotal.Equal(decimal.NewFromInt(150000)))
		assert.True(t, found.GrandTotal.Equal(decimal.NewFromInt(230000)))
		assert.Nil(t, found.Variance)
	})

	t.Run("re-closing the day overwrites instead of stacking", func(t *testing.T) {
		physical := decimal.NewFromInt(148000)
		second := newClose(t, tenantID, date, 150000, &physical)
		require.NoError(t, repo.Upsert(ctx, second))

		var count int64
		require.NoError(t, db.Model(&ledger.CashRegisterClose{}).
			Where("tenant_id = ?", tenantID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		found, err := repo.FindByDate(ctx, tenantID, date)
		require.NoError(t, err)
		require.NotNil(t, found.Variance)
		assert.True(t, found.Variance.Equal(decimal.NewFromInt(-2000)))
		assert.True(t, found.HasShortfall())

		// the aggregate reflects the surviving row, not a phantom id
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, found.ID, second.ID)
	})

	t.Run("missing date answers ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByDate(ctx, tenantID, date.AddDate(0, 0, 1))
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("same date for another institution is a separate row", func(t *testing.T) {
		otherTenant := uuid.New()
		require.NoError(t, repo.Upsert(ctx, newClose(t, otherTenant, date, 99000, nil)))

		found, err := repo.FindByDate(ctx, otherTenant, date)
		require.NoError(t, err)
		assert.True(t, found.CashTotal.Equal(decimal.NewFromInt(99000)))
	})
}

func TestGormCashCloseRepository_FindAllForTenant(t *testing.T) {
	db := setupCashCloseTestDB(t)
	repo := NewGormCashCloseRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	for day := 1; day <= 3; day++ {
		date := time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Upsert(ctx, newClose(t, tenantID, date, int64(day)*10000, nil)))
	}

	t.Run("lists newest first", func(t *testing.T) {
		all, err := repo.FindAllForTenant(ctx, tenantID, nil, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.True(t, all[0].CloseDate.After(all[2].CloseDate))
	})

	t.Run("bounds by date range", func(t *testing.T) {
		from := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 2, 23, 59, 59, 0, time.UTC)

		all, err := repo.FindAllForTenant(ctx, tenantID, &from, &to)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].CashTotal.Equal(decimal.NewFromInt(20000)))
	})
}
