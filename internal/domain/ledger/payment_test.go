package ledger

import (
	"testing"
	"time"

	"github.com/edufin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPayment(t *testing.T, amount int64) *FinancialPayment {
	obligationID := uuid.New()
	p, err := NewFinancialPayment(
		uuid.New(),
		"RC-000001",
		uuid.New(),
		&obligationID,
		d(amount),
		PaymentMethodCash,
		uuid.New(),
		time.Now(),
	)
	require.NoError(t, err)
	return p
}

func TestPaymentMethod_IsValid(t *testing.T) {
	tests := []struct {
		method  PaymentMethod
		isValid bool
	}{
		{PaymentMethodCash, true},
		{PaymentMethodTransfer, true},
		{PaymentMethodPSE, true},
		{PaymentMethodWallet, true},
		{PaymentMethodCard, true},
		{PaymentMethodOther, true},
		{PaymentMethod("CHECK"), false},
		{PaymentMethod(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.method.IsValid())
		})
	}
}

func TestPaymentMethod_Bucket(t *testing.T) {
	tests := []struct {
		method PaymentMethod
		bucket MethodBucket
	}{
		{PaymentMethodCash, BucketCash},
		{PaymentMethodTransfer, BucketTransfer},
		{PaymentMethodPSE, BucketTransfer},
		{PaymentMethodWallet, BucketTransfer},
		{PaymentMethodCard, BucketCard},
		{PaymentMethodOther, BucketOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.bucket, tt.method.Bucket())
		})
	}
}

func TestNewFinancialPayment(t *testing.T) {
	t.Run("creates payment with event", func(t *testing.T) {
		p := createTestPayment(t, 60000)
		assert.False(t, p.Voided)
		assert.True(t, p.CountsTowardTotals())
		assert.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("standalone payment has no obligation", func(t *testing.T) {
		p, err := NewFinancialPayment(uuid.New(), "RC-2", uuid.New(), nil, d(5000), PaymentMethodPSE, uuid.New(), time.Now())
		require.NoError(t, err)
		assert.Nil(t, p.ObligationID)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := NewFinancialPayment(uuid.New(), "RC-3", uuid.New(), nil, d(0), PaymentMethodCash, uuid.New(), time.Now())
		assert.Error(t, err)
		_, err = NewFinancialPayment(uuid.New(), "RC-3", uuid.New(), nil, d(-100), PaymentMethodCash, uuid.New(), time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects invalid method", func(t *testing.T) {
		_, err := NewFinancialPayment(uuid.New(), "RC-4", uuid.New(), nil, d(100), PaymentMethod("BARTER"), uuid.New(), time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects empty receipt number", func(t *testing.T) {
		_, err := NewFinancialPayment(uuid.New(), "", uuid.New(), nil, d(100), PaymentMethodCash, uuid.New(), time.Now())
		assert.Error(t, err)
	})

	t.Run("zero payment date defaults to now", func(t *testing.T) {
		p, err := NewFinancialPayment(uuid.New(), "RC-5", uuid.New(), nil, d(100), PaymentMethodCash, uuid.New(), time.Time{})
		require.NoError(t, err)
		assert.False(t, p.PaymentDate.IsZero())
	})

	t.Run("amount as money", func(t *testing.T) {
		p := createTestPayment(t, 60000)
		m := p.GetAmountMoney()
		assert.True(t, m.Amount().Equal(d(60000)))
		assert.Equal(t, valueobject.COP, m.Currency())
	})
}

func TestPayment_Void(t *testing.T) {
	t.Run("flags the row, never deletes", func(t *testing.T) {
		p := createTestPayment(t, 60000)
		actor := uuid.New()

		require.NoError(t, p.Void(actor, "cashier error"))

		assert.True(t, p.Voided)
		assert.Equal(t, "cashier error", p.VoidReason)
		require.NotNil(t, p.VoidedBy)
		assert.Equal(t, actor, *p.VoidedBy)
		assert.NotNil(t, p.VoidedAt)
		assert.False(t, p.CountsTowardTotals())
		// the amount stays on the row for audit
		assert.True(t, p.Amount.Equal(d(60000)))
	})

	t.Run("double void rejected", func(t *testing.T) {
		p := createTestPayment(t, 60000)
		require.NoError(t, p.Void(uuid.New(), "first"))
		assert.Error(t, p.Void(uuid.New(), "second"))
	})

	t.Run("requires reason", func(t *testing.T) {
		p := createTestPayment(t, 60000)
		assert.Error(t, p.Void(uuid.New(), "   "))
	})
}
