package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *memStore
	txm      ledger.TransactionManager
	tenantID uuid.UUID
	actor    uuid.UUID
}

func newTestEnv() *testEnv {
	store := newMemStore()
	return &testEnv{
		store:    store,
		txm:      &memTxManager{store: store},
		tenantID: uuid.New(),
		actor:    uuid.New(),
	}
}

func (e *testEnv) addConcept(t *testing.T, name string, amount int64) *ledger.ChargeConcept {
	t.Helper()
	c, err := ledger.NewChargeConcept(e.tenantID, name, decimal.NewFromInt(amount))
	require.NoError(t, err)
	e.store.concepts[c.ID] = *c
	return c
}

func (e *testEnv) addParty(t *testing.T, name string) *party.ThirdParty {
	t.Helper()
	tp, err := party.NewThirdParty(e.tenantID, party.ThirdPartyTypeLearner, name)
	require.NoError(t, err)
	e.store.parties[tp.ID] = *tp
	return tp
}

func (e *testEnv) obligationService() *ObligationService {
	return NewObligationService(e.txm, &memObligationRepo{e.store}, nil)
}

func TestObligationService_Create(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	tp := env.addParty(t, "Laura Gómez")
	svc := env.obligationService()
	ctx := context.Background()

	t.Run("uses concept defaults and allocates reference", func(t *testing.T) {
		resp, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID: tp.ID,
			ConceptID:    concept.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, "OB-000001", resp.Reference)
		assert.True(t, resp.OriginalAmount.Equal(decimal.NewFromInt(100000)))
		assert.True(t, resp.Balance.Equal(decimal.NewFromInt(100000)))
		assert.Equal(t, "PENDING", resp.Status)
		assert.Equal(t, tp.Name, resp.ThirdPartyName)

		stored := env.store.obligations[resp.ID]
		require.NotNil(t, stored.CreatedBy)
		assert.Equal(t, env.actor, *stored.CreatedBy)
	})

	t.Run("rejects a second open obligation for the same pair", func(t *testing.T) {
		_, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID: tp.ID,
			ConceptID:    concept.ID,
		})
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "ALREADY_EXISTS"))
	})

	t.Run("allow_duplicate bypasses the open-obligation check", func(t *testing.T) {
		resp, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID:   tp.ID,
			ConceptID:      concept.ID,
			AllowDuplicate: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "OB-000002", resp.Reference)
	})

	t.Run("amount override beats the concept default", func(t *testing.T) {
		other := env.addParty(t, "Carlos Ruiz")
		amount := decimal.NewFromInt(85000)
		resp, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID: other.ID,
			ConceptID:    concept.ID,
			Amount:       &amount,
		})
		require.NoError(t, err)
		assert.True(t, resp.TotalAmount.Equal(amount))
	})

	t.Run("unknown concept reports not found", func(t *testing.T) {
		_, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID: tp.ID,
			ConceptID:    uuid.New(),
		})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("deactivated concept is rejected", func(t *testing.T) {
		inactive := env.addConcept(t, "Old Fee", 5000)
		c := env.store.concepts[inactive.ID]
		require.NoError(t, c.Deactivate())
		env.store.concepts[inactive.ID] = c

		_, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID: tp.ID,
			ConceptID:    inactive.ID,
		})
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
	})
}

func TestObligationService_ApplyDiscount(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	tp := env.addParty(t, "Laura Gómez")
	svc := env.obligationService()
	ctx := context.Background()

	created, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
		ThirdPartyID: tp.ID,
		ConceptID:    concept.ID,
	})
	require.NoError(t, err)

	resp, err := svc.ApplyDiscount(ctx, env.tenantID, created.ID, ApplyDiscountRequest{
		Amount:     decimal.NewFromInt(20000),
		Reason:     "sibling discount",
		ApprovedBy: env.actor,
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(80000)))
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(80000)))
	assert.Equal(t, "sibling discount", resp.DiscountReason)

	// persisted, not just returned
	stored := env.store.obligations[created.ID]
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(80000)))
}

func TestObligationService_Cancel(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	tp := env.addParty(t, "Laura Gómez")
	svc := env.obligationService()
	ctx := context.Background()

	created, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
		ThirdPartyID: tp.ID,
		ConceptID:    concept.ID,
	})
	require.NoError(t, err)

	resp, err := svc.Cancel(ctx, env.tenantID, created.ID, CancelObligationRequest{Reason: "enrollment withdrawn"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Contains(t, resp.Notes, "enrollment withdrawn")

	_, err = svc.Cancel(ctx, env.tenantID, created.ID, CancelObligationRequest{Reason: "again"})
	assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
}

func TestObligationService_Outstanding(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	svc := env.obligationService()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		tp := env.addParty(t, name)
		_, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
			ThirdPartyID: tp.ID,
			ConceptID:    concept.ID,
		})
		require.NoError(t, err)
	}

	summary, err := svc.Outstanding(ctx, env.tenantID)
	require.NoError(t, err)
	assert.True(t, summary.OutstandingBalance.Equal(decimal.NewFromInt(300000)))
}

func TestObligationService_MarkOverdueSweep(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	tp := env.addParty(t, "Laura Gómez")
	svc := env.obligationService()
	ctx := context.Background()

	pastDue := time.Now().AddDate(0, 0, -10)
	created, err := svc.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
		ThirdPartyID: tp.ID,
		ConceptID:    concept.ID,
		DueDate:      &pastDue,
	})
	require.NoError(t, err)

	flipped, err := svc.MarkOverdueSweep(ctx, env.tenantID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	stored := env.store.obligations[created.ID]
	assert.Equal(t, ledger.ObligationStatusOverdue, stored.Status)

	// second run is a no-op
	flipped, err = svc.MarkOverdueSweep(ctx, env.tenantID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, flipped)
}
