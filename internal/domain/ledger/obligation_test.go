package ledger

import (
	"testing"
	"time"

	"github.com/edufin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func createTestObligation(t *testing.T, original, discount int64) *FinancialObligation {
	o, err := NewFinancialObligation(
		uuid.New(),
		"OB-000001",
		uuid.New(),
		"Ana María Rojas",
		uuid.New(),
		"Monthly Tuition",
		d(original),
		d(discount),
		nil,
	)
	require.NoError(t, err)
	return o
}

func TestObligationStatus_CanAcceptPayment(t *testing.T) {
	tests := []struct {
		status ObligationStatus
		want   bool
	}{
		{ObligationStatusPending, true},
		{ObligationStatusPartial, true},
		{ObligationStatusOverdue, true},
		{ObligationStatusPaid, false},
		{ObligationStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.CanAcceptPayment())
		})
	}
}

func TestNewFinancialObligation(t *testing.T) {
	t.Run("tuition with no overrides", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)

		assert.True(t, o.OriginalAmount.Equal(d(100000)))
		assert.True(t, o.TotalAmount.Equal(d(100000)))
		assert.True(t, o.Balance.Equal(d(100000)))
		assert.True(t, o.PaidAmount.IsZero())
		assert.Equal(t, ObligationStatusPending, o.Status)
		assert.Nil(t, o.PaidAt)
	})

	t.Run("creation discount reduces total", func(t *testing.T) {
		o := createTestObligation(t, 100000, 30000)
		assert.True(t, o.TotalAmount.Equal(d(70000)))
		assert.True(t, o.Balance.Equal(d(70000)))
		assert.Equal(t, ObligationStatusPending, o.Status)
	})

	t.Run("discount exceeding amount floors total at zero and starts paid", func(t *testing.T) {
		o := createTestObligation(t, 100000, 150000)
		assert.True(t, o.TotalAmount.IsZero())
		assert.True(t, o.Balance.IsZero())
		assert.Equal(t, ObligationStatusPaid, o.Status)
		assert.NotNil(t, o.PaidAt)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := NewFinancialObligation(uuid.New(), "OB-1", uuid.New(), "x", uuid.New(), "y", d(-1), d(0), nil)
		assert.Error(t, err)
		_, err = NewFinancialObligation(uuid.New(), "OB-1", uuid.New(), "x", uuid.New(), "y", d(100), d(-1), nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty reference", func(t *testing.T) {
		_, err := NewFinancialObligation(uuid.New(), "", uuid.New(), "x", uuid.New(), "y", d(100), d(0), nil)
		assert.Error(t, err)
	})
}

func TestObligation_PaymentLifecycle(t *testing.T) {
	o := createTestObligation(t, 100000, 0)

	// First payment: 60000 -> PARTIAL
	require.NoError(t, o.ApplyPaymentDelta(d(60000)))
	assert.True(t, o.PaidAmount.Equal(d(60000)))
	assert.True(t, o.Balance.Equal(d(40000)))
	assert.Equal(t, ObligationStatusPartial, o.Status)
	assert.Nil(t, o.PaidAt)

	// Second payment: 40000 -> PAID
	require.NoError(t, o.ApplyPaymentDelta(d(40000)))
	assert.True(t, o.Balance.IsZero())
	assert.Equal(t, ObligationStatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)

	// Void the first payment: back to PARTIAL, PaidAt cleared
	require.NoError(t, o.ApplyPaymentDelta(d(-60000)))
	assert.True(t, o.PaidAmount.Equal(d(40000)))
	assert.True(t, o.Balance.Equal(d(60000)))
	assert.Equal(t, ObligationStatusPartial, o.Status)
	assert.Nil(t, o.PaidAt)

	// Void the second payment too: fully voided returns to PENDING
	require.NoError(t, o.ApplyPaymentDelta(d(-40000)))
	assert.True(t, o.PaidAmount.IsZero())
	assert.True(t, o.Balance.Equal(d(100000)))
	assert.Equal(t, ObligationStatusPending, o.Status)
}

func TestObligation_PaymentThenFullVoidRestoresPrePaymentState(t *testing.T) {
	o := createTestObligation(t, 100000, 0)
	beforePaid := o.PaidAmount
	beforeBalance := o.Balance
	beforeStatus := o.Status

	require.NoError(t, o.ApplyPaymentDelta(d(25000)))
	require.NoError(t, o.ApplyPaymentDelta(d(-25000)))

	assert.True(t, o.PaidAmount.Equal(beforePaid))
	assert.True(t, o.Balance.Equal(beforeBalance))
	assert.Equal(t, beforeStatus, o.Status)
}

func TestObligation_FullVoidRestoresOverdue(t *testing.T) {
	o := createTestObligation(t, 100000, 0)
	require.NoError(t, o.MarkOverdue())
	assert.Equal(t, ObligationStatusOverdue, o.Status)

	require.NoError(t, o.ApplyPaymentDelta(d(50000)))
	assert.Equal(t, ObligationStatusPartial, o.Status)

	require.NoError(t, o.ApplyPaymentDelta(d(-50000)))
	assert.Equal(t, ObligationStatusOverdue, o.Status)
}

func TestObligation_ApplyPaymentDelta_Guards(t *testing.T) {
	t.Run("rejects driving paid below zero", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		assert.Error(t, o.ApplyPaymentDelta(d(-1)))
	})

	t.Run("rejects cancelled obligation", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.Cancel("duplicate charge"))
		assert.Error(t, o.ApplyPaymentDelta(d(1000)))
	})

	t.Run("overpayment floors balance at zero", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyPaymentDelta(d(120000)))
		assert.True(t, o.Balance.IsZero())
		assert.Equal(t, ObligationStatusPaid, o.Status)
		assert.True(t, o.PaidAmount.Equal(d(120000)))
	})
}

func TestObligation_ApplyDiscount(t *testing.T) {
	approver := uuid.New()

	t.Run("discount with partial payment keeps status", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyPaymentDelta(d(40000)))
		require.Equal(t, ObligationStatusPartial, o.Status)

		require.NoError(t, o.ApplyDiscount(d(20000), "sibling discount", approver))

		assert.True(t, o.TotalAmount.Equal(d(80000)))
		assert.True(t, o.Balance.Equal(d(40000)))
		assert.Equal(t, ObligationStatusPartial, o.Status)
	})

	t.Run("discount driving balance to zero pays the obligation", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyDiscount(d(100000), "full scholarship", approver))

		assert.True(t, o.TotalAmount.IsZero())
		assert.True(t, o.Balance.IsZero())
		assert.Equal(t, ObligationStatusPaid, o.Status)
		assert.NotNil(t, o.PaidAt)
	})

	t.Run("discount exceeding original floors at zero", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyDiscount(d(999999), "waived", approver))
		assert.True(t, o.TotalAmount.IsZero())
		assert.Equal(t, ObligationStatusPaid, o.Status)
	})

	t.Run("rejected on paid obligation", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyPaymentDelta(d(100000)))
		assert.Error(t, o.ApplyDiscount(d(1000), "late", approver))
	})

	t.Run("rejected on cancelled obligation", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.Cancel("mistake"))
		assert.Error(t, o.ApplyDiscount(d(1000), "late", approver))
	})

	t.Run("requires reason", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		assert.Error(t, o.ApplyDiscount(d(1000), "  ", approver))
	})

	t.Run("records approver and reason", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyDiscount(d(5000), "hardship", approver))
		require.NotNil(t, o.DiscountApprovedBy)
		assert.Equal(t, approver, *o.DiscountApprovedBy)
		assert.Equal(t, "hardship", o.DiscountReason)
	})
}

func TestObligation_Cancel(t *testing.T) {
	t.Run("cancel is terminal and keeps amounts", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyPaymentDelta(d(30000)))

		require.NoError(t, o.Cancel("withdrew enrollment"))

		assert.Equal(t, ObligationStatusCancelled, o.Status)
		assert.True(t, o.PaidAmount.Equal(d(30000)))
		assert.True(t, o.Balance.Equal(d(70000)))
		assert.Contains(t, o.Notes, "withdrew enrollment")
		assert.NotNil(t, o.CancelledAt)
	})

	t.Run("paid obligations cannot be cancelled", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.ApplyPaymentDelta(d(100000)))
		assert.Error(t, o.Cancel("too late"))
	})

	t.Run("double cancel rejected", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		require.NoError(t, o.Cancel("first"))
		assert.Error(t, o.Cancel("second"))
	})

	t.Run("requires reason", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		assert.Error(t, o.Cancel(""))
	})
}

func TestObligation_InvariantsAtRest(t *testing.T) {
	// balance == max(0, total - paid) and total == max(0, original - discount)
	// across a random-ish walk of mutations
	o := createTestObligation(t, 250000, 0)
	approver := uuid.New()

	steps := []func() error{
		func() error { return o.ApplyPaymentDelta(d(50000)) },
		func() error { return o.ApplyDiscount(d(30000), "aid", approver) },
		func() error { return o.ApplyPaymentDelta(d(100000)) },
		func() error { return o.ApplyPaymentDelta(d(-50000)) },
		func() error { return o.ApplyPaymentDelta(d(120000)) },
	}

	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)

		wantTotal := o.OriginalAmount.Sub(o.DiscountAmount)
		if wantTotal.IsNegative() {
			wantTotal = decimal.Zero
		}
		assert.True(t, o.TotalAmount.Equal(wantTotal), "total invariant at step %d", i)

		wantBalance := o.TotalAmount.Sub(o.PaidAmount)
		if wantBalance.IsNegative() {
			wantBalance = decimal.Zero
		}
		assert.True(t, o.Balance.Equal(wantBalance), "balance invariant at step %d", i)
	}
}

func TestObligation_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	t.Run("past due date", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		o.DueDate = &past
		assert.True(t, o.IsOverdue(now))
	})

	t.Run("future due date", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		o.DueDate = &future
		assert.False(t, o.IsOverdue(now))
	})

	t.Run("no due date", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		assert.False(t, o.IsOverdue(now))
	})

	t.Run("paid obligations are never overdue", func(t *testing.T) {
		o := createTestObligation(t, 100000, 0)
		o.DueDate = &past
		require.NoError(t, o.ApplyPaymentDelta(d(100000)))
		assert.False(t, o.IsOverdue(now))
	})
}

func TestObligation_MoneyAccessors(t *testing.T) {
	o := createTestObligation(t, 100000, 20000)
	require.NoError(t, o.ApplyPaymentDelta(d(30000)))

	total := o.GetTotalAmountMoney()
	assert.True(t, total.Amount().Equal(d(80000)))
	assert.Equal(t, valueobject.COP, total.Currency())

	paid := o.GetPaidAmountMoney()
	assert.True(t, paid.Amount().Equal(d(30000)))

	balance := o.GetBalanceMoney()
	assert.True(t, balance.Amount().Equal(d(50000)))
	assert.True(t, total.MustSubtract(paid).Equals(balance))
}

func TestObligation_MutationAdvancesTimestampAndVersion(t *testing.T) {
	o := createTestObligation(t, 100000, 0)
	before := o.UpdatedAt
	version := o.Version

	time.Sleep(time.Millisecond)
	o.AppendNote("called the guardian")

	assert.True(t, o.UpdatedAt.After(before))
	assert.Equal(t, version+1, o.Version)
}
