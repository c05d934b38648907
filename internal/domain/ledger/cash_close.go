package ledger

import (
	"strings"
	"time"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentBuckets holds the per-method-bucket totals of one register day
type PaymentBuckets struct {
	Cash     decimal.Decimal
	Transfer decimal.Decimal
	Card     decimal.Decimal
	Other    decimal.Decimal
}

// GrandTotal sums all buckets
func (b PaymentBuckets) GrandTotal() decimal.Decimal {
	return b.Cash.Add(b.Transfer).Add(b.Card).Add(b.Other)
}

// Add accumulates an amount into the given bucket
func (b *PaymentBuckets) Add(bucket MethodBucket, amount decimal.Decimal) {
	switch bucket {
	case BucketCash:
		b.Cash = b.Cash.Add(amount)
	case BucketTransfer:
		b.Transfer = b.Transfer.Add(amount)
	case BucketCard:
		b.Card = b.Card.Add(amount)
	default:
		b.Other = b.Other.Add(amount)
	}
}

// DayWindow returns the inclusive [00:00:00, 23:59:59.999999999] window of
// the given calendar date in the institution's local timezone.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// CashRegisterClose is the reconciliation row for one (institution, date).
// It aggregates that day's non-voided payments by bucket and compares the
// computed cash bucket against the physically counted drawer. One row per
// day: re-closing recomputes and overwrites.
type CashRegisterClose struct {
	shared.TenantAggregateRoot
	// CloseDate is the calendar date, midnight local
	CloseDate         time.Time        `json:"close_date" gorm:"not null;uniqueIndex:idx_close_tenant_date,composite:tenant_id"`
	CashTotal         decimal.Decimal  `json:"cash_total" gorm:"type:decimal(18,2);not null"`
	TransferTotal     decimal.Decimal  `json:"transfer_total" gorm:"type:decimal(18,2);not null"`
	CardTotal         decimal.Decimal  `json:"card_total" gorm:"type:decimal(18,2);not null"`
	OtherTotal        decimal.Decimal  `json:"other_total" gorm:"type:decimal(18,2);not null"`
	GrandTotal        decimal.Decimal  `json:"grand_total" gorm:"type:decimal(18,2);not null"`
	PhysicalCashCount *decimal.Decimal `json:"physical_cash_count" gorm:"type:decimal(18,2)"`
	// Variance is physical - computed cash; negative is a shortfall
	Variance     *decimal.Decimal `json:"variance" gorm:"type:decimal(18,2)"`
	PaymentCount int              `json:"payment_count" gorm:"not null;default:0"`
	Notes        string           `json:"notes"`
	ClosedBy     uuid.UUID        `json:"closed_by" gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CashRegisterClose) TableName() string {
	return "cash_register_closes"
}

// NewCashRegisterClose computes a close row from the day's bucket totals.
// physicalCashCount is optional; when present the signed variance against
// the computed cash bucket is stamped.
func NewCashRegisterClose(
	tenantID uuid.UUID,
	closeDate time.Time,
	buckets PaymentBuckets,
	paymentCount int,
	physicalCashCount *decimal.Decimal,
	notes string,
	closedBy uuid.UUID,
) (*CashRegisterClose, error) {
	if closeDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Close date cannot be empty")
	}
	if physicalCashCount != nil && physicalCashCount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Physical cash count cannot be negative")
	}

	c := &CashRegisterClose{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CloseDate:           closeDate,
		CashTotal:           buckets.Cash,
		TransferTotal:       buckets.Transfer,
		CardTotal:           buckets.Card,
		OtherTotal:          buckets.Other,
		GrandTotal:          buckets.GrandTotal(),
		PaymentCount:        paymentCount,
		Notes:               strings.TrimSpace(notes),
		ClosedBy:            closedBy,
	}

	if physicalCashCount != nil {
		count := *physicalCashCount
		variance := count.Sub(c.CashTotal)
		c.PhysicalCashCount = &count
		c.Variance = &variance
	}

	c.AddDomainEvent(NewCashRegisterClosedEvent(c))

	return c, nil
}

// HasShortfall reports whether the physical count came in under the
// computed cash bucket.
func (c *CashRegisterClose) HasShortfall() bool {
	return c.Variance != nil && c.Variance.IsNegative()
}
