package ledger

import (
	"context"
	"testing"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) paymentService() *PaymentService {
	return NewPaymentService(e.txm, &memPaymentRepo{e.store}, &memIdempotency{}, shared.DefaultIdempotencyConfig(), nil)
}

func TestPaymentService_Register(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	tp := env.addParty(t, "Laura Gómez")
	obligations := env.obligationService()
	payments := env.paymentService()
	ctx := context.Background()

	created, err := obligations.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
		ThirdPartyID: tp.ID,
		ConceptID:    concept.ID,
	})
	require.NoError(t, err)

	t.Run("partial payment moves the obligation to PARTIAL", func(t *testing.T) {
		resp, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
			ThirdPartyID: tp.ID,
			ObligationID: &created.ID,
			Amount:       decimal.NewFromInt(60000),
			Method:       "CASH",
		})
		require.NoError(t, err)

		assert.Equal(t, "RC-000001", resp.ReceiptNumber)
		assert.False(t, resp.Voided)

		o := env.store.obligations[created.ID]
		assert.Equal(t, ledger.ObligationStatusPartial, o.Status)
		assert.True(t, o.Balance.Equal(decimal.NewFromInt(40000)))
		assert.True(t, o.PaidAmount.Equal(decimal.NewFromInt(60000)))
	})

	t.Run("settling payment moves the obligation to PAID", func(t *testing.T) {
		_, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
			ThirdPartyID: tp.ID,
			ObligationID: &created.ID,
			Amount:       decimal.NewFromInt(40000),
			Method:       "PSE",
		})
		require.NoError(t, err)

		o := env.store.obligations[created.ID]
		assert.Equal(t, ledger.ObligationStatusPaid, o.Status)
		assert.True(t, o.Balance.IsZero())
		assert.NotNil(t, o.PaidAt)
	})

	t.Run("paid obligations accept no further payments", func(t *testing.T) {
		_, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
			ThirdPartyID: tp.ID,
			ObligationID: &created.ID,
			Amount:       decimal.NewFromInt(1000),
			Method:       "CASH",
		})
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
	})

	t.Run("standalone receipt touches no balance", func(t *testing.T) {
		resp, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
			ThirdPartyID: tp.ID,
			Amount:       decimal.NewFromInt(15000),
			Method:       "CASH",
			Notes:        "library card replacement",
		})
		require.NoError(t, err)
		assert.Nil(t, resp.ObligationID)
	})

	t.Run("obligation of another third party is rejected", func(t *testing.T) {
		other := env.addParty(t, "Carlos Ruiz")
		_, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
			ThirdPartyID: other.ID,
			ObligationID: &created.ID,
			Amount:       decimal.NewFromInt(1000),
			Method:       "CASH",
		})
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_INPUT"))
	})

	t.Run("duplicate idempotency key is rejected without writing", func(t *testing.T) {
		other := env.addParty(t, "Marta Díaz")
		req := RegisterPaymentRequest{
			ThirdPartyID:   other.ID,
			Amount:         decimal.NewFromInt(5000),
			Method:         "CARD",
			IdempotencyKey: "terminal-7:txn-42",
		}

		_, err := payments.Register(ctx, env.tenantID, env.actor, req)
		require.NoError(t, err)

		before := len(env.store.payments)
		_, err = payments.Register(ctx, env.tenantID, env.actor, req)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "ALREADY_EXISTS"))
		assert.Equal(t, before, len(env.store.payments))
	})

	t.Run("invalid method is rejected", func(t *testing.T) {
		_, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
			ThirdPartyID: tp.ID,
			Amount:       decimal.NewFromInt(1000),
			Method:       "BARTER",
		})
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_INPUT"))
	})
}

func TestPaymentService_Void(t *testing.T) {
	env := newTestEnv()
	concept := env.addConcept(t, "Monthly Tuition", 100000)
	tp := env.addParty(t, "Laura Gómez")
	obligations := env.obligationService()
	payments := env.paymentService()
	ctx := context.Background()

	created, err := obligations.Create(ctx, env.tenantID, env.actor, CreateObligationRequest{
		ThirdPartyID: tp.ID,
		ConceptID:    concept.ID,
	})
	require.NoError(t, err)

	first, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
		ThirdPartyID: tp.ID,
		ObligationID: &created.ID,
		Amount:       decimal.NewFromInt(60000),
		Method:       "CASH",
	})
	require.NoError(t, err)

	second, err := payments.Register(ctx, env.tenantID, env.actor, RegisterPaymentRequest{
		ThirdPartyID: tp.ID,
		ObligationID: &created.ID,
		Amount:       decimal.NewFromInt(40000),
		Method:       "TRANSFER",
	})
	require.NoError(t, err)
	require.Equal(t, ledger.ObligationStatusPaid, env.store.obligations[created.ID].Status)

	t.Run("void reopens a paid obligation", func(t *testing.T) {
		resp, err := payments.Void(ctx, env.tenantID, second.ID, env.actor, VoidPaymentRequest{Reason: "bounced transfer"})
		require.NoError(t, err)

		assert.True(t, resp.Voided)
		assert.Equal(t, "bounced transfer", resp.VoidReason)

		o := env.store.obligations[created.ID]
		assert.Equal(t, ledger.ObligationStatusPartial, o.Status)
		assert.True(t, o.Balance.Equal(decimal.NewFromInt(40000)))
		assert.Nil(t, o.PaidAt)
	})

	t.Run("full void restores the pre-payment status", func(t *testing.T) {
		_, err := payments.Void(ctx, env.tenantID, first.ID, env.actor, VoidPaymentRequest{Reason: "cashier error"})
		require.NoError(t, err)

		o := env.store.obligations[created.ID]
		assert.Equal(t, ledger.ObligationStatusPending, o.Status)
		assert.True(t, o.PaidAmount.IsZero())
		assert.True(t, o.Balance.Equal(decimal.NewFromInt(100000)))
	})

	t.Run("voiding twice is rejected", func(t *testing.T) {
		_, err := payments.Void(ctx, env.tenantID, first.ID, env.actor, VoidPaymentRequest{Reason: "again"})
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
	})

	t.Run("voided rows stay in the ledger", func(t *testing.T) {
		all, _, err := payments.List(ctx, env.tenantID, ledger.PaymentFilter{IncludeVoided: true})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		active, _, err := payments.List(ctx, env.tenantID, ledger.PaymentFilter{})
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}
