package persistence

import (
	"context"
	"fmt"
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

// The obligations table is created by hand here: the partial unique index
// over open statuses comes from the SQL migration and AutoMigrate cannot
// express it.
func setupObligationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE financial_obligations (
		id uuid PRIMARY KEY,
		created_at datetime,
		updated_at datetime,
		version integer NOT NULL DEFAULT 1,
		tenant_id uuid NOT NULL,
		created_by uuid,
		reference varchar(50) NOT NULL,
		third_party_id uuid NOT NULL,
		third_party_name varchar(200),
		concept_id uuid NOT NULL,
		concept_name varchar(150),
		original_amount decimal NOT NULL,
		discount_amount decimal NOT NULL,
		total_amount decimal NOT NULL,
		paid_amount decimal NOT NULL,
		balance decimal NOT NULL,
		status varchar(20) NOT NULL,
		prior_status varchar(20),
		due_date datetime,
		discount_reason text,
		discount_approved_by uuid,
		notes text,
		paid_at datetime,
		cancelled_at datetime,
		UNIQUE (tenant_id, reference)
	)`).Error)

	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX idx_obligations_open_concept_party
		ON financial_obligations (tenant_id, concept_id, third_party_id)
		WHERE status IN ('PENDING', 'PARTIAL', 'OVERDUE')`).Error)

	return db
}

func newOpenObligation(t *testing.T, tenantID, conceptID, thirdPartyID uuid.UUID, reference string) *ledger.FinancialObligation {
	t.Helper()

	o, err := ledger.NewFinancialObligation(
		tenantID, reference, thirdPartyID, "Laura Gómez", conceptID, "Monthly Tuition",
		decimal.NewFromInt(100000), decimal.Zero, nil,
	)
	require.NoError(t, err)
	return o
}

func TestGormObligationRepository_OpenObligationUniqueness(t *testing.T) {
	repo := NewGormObligationRepository(setupObligationTestDB(t))
	ctx := context.Background()

	tenantID := uuid.New()
	conceptID := uuid.New()
	thirdPartyID := uuid.New()

	first := newOpenObligation(t, tenantID, conceptID, thirdPartyID, "OB-000001")
	require.NoError(t, repo.Save(ctx, first))

	t.Run("second open obligation for the pair is rejected", func(t *testing.T) {
		dup := newOpenObligation(t, tenantID, conceptID, thirdPartyID, "OB-000002")
		err := repo.Save(ctx, dup)
		require.Error(t, err)
		assert.True(t, shared.IsAlreadyExists(err))
	})

	t.Run("same pair in another institution is fine", func(t *testing.T) {
		other := newOpenObligation(t, uuid.New(), conceptID, thirdPartyID, "OB-000001")
		assert.NoError(t, repo.Save(ctx, other))
	})

	t.Run("settled obligations free the pair", func(t *testing.T) {
		require.NoError(t, first.ApplyPaymentDelta(decimal.NewFromInt(100000)))
		require.Equal(t, ledger.ObligationStatusPaid, first.Status)
		require.NoError(t, repo.Save(ctx, first))

		next := newOpenObligation(t, tenantID, conceptID, thirdPartyID, "OB-000003")
		assert.NoError(t, repo.Save(ctx, next))
	})
}

func TestGormObligationRepository_FindPastDueOpen(t *testing.T) {
	db := setupObligationTestDB(t)
	repo := NewGormObligationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	thirdPartyID := uuid.New()
	now := time.Now()
	pastDue := now.AddDate(0, 0, -10)
	futureDue := now.AddDate(0, 0, 10)

	// well past the default page size; the sweep must see every row
	for i := 0; i < 25; i++ {
		o := newOpenObligation(t, tenantID, uuid.New(), thirdPartyID, fmt.Sprintf("OB-%06d", i+1))
		o.DueDate = &pastDue
		require.NoError(t, repo.Save(ctx, o))
	}

	notDue := newOpenObligation(t, tenantID, uuid.New(), thirdPartyID, "OB-000100")
	notDue.DueDate = &futureDue
	require.NoError(t, repo.Save(ctx, notDue))

	settled := newOpenObligation(t, tenantID, uuid.New(), thirdPartyID, "OB-000101")
	settled.DueDate = &pastDue
	require.NoError(t, settled.ApplyPaymentDelta(decimal.NewFromInt(100000)))
	require.NoError(t, repo.Save(ctx, settled))

	candidates, err := repo.FindPastDueOpen(ctx, tenantID, now)
	require.NoError(t, err)
	assert.Len(t, candidates, 25)
	for _, c := range candidates {
		assert.True(t, c.Status.IsActive())
	}
}

func TestGormObligationRepository_SaveGuardedWritesClearedFields(t *testing.T) {
	repo := NewGormObligationRepository(setupObligationTestDB(t))
	ctx := context.Background()

	tenantID := uuid.New()
	o := newOpenObligation(t, tenantID, uuid.New(), uuid.New(), "OB-000010")
	require.NoError(t, repo.Save(ctx, o))

	// full payment stamps paid_at
	require.NoError(t, o.ApplyPaymentDelta(decimal.NewFromInt(100000)))
	require.NotNil(t, o.PaidAt)
	require.NoError(t, repo.SaveGuarded(ctx, o))

	// voiding it back down must clear the stamp in the database too
	require.NoError(t, o.ApplyPaymentDelta(decimal.NewFromInt(-100000)))
	require.Nil(t, o.PaidAt)
	require.NoError(t, repo.SaveGuarded(ctx, o))

	reloaded, err := repo.FindByIDForTenant(ctx, tenantID, o.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.PaidAt)
	assert.Equal(t, ledger.ObligationStatusPending, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.IsZero())
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(100000)))
}
