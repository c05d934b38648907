package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationStatus represents the lifecycle state of a financial obligation
type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "PENDING"   // no payments yet, balance > 0
	ObligationStatusPartial   ObligationStatus = "PARTIAL"   // 0 < paid < total
	ObligationStatusOverdue   ObligationStatus = "OVERDUE"   // past due; set by the overdue sweep, not by the ledger
	ObligationStatusPaid      ObligationStatus = "PAID"      // balance reached zero
	ObligationStatusCancelled ObligationStatus = "CANCELLED" // terminal, kept for audit
)

// IsValid checks if the status is a valid ObligationStatus
func (s ObligationStatus) IsValid() bool {
	switch s {
	case ObligationStatusPending, ObligationStatusPartial, ObligationStatusOverdue,
		ObligationStatusPaid, ObligationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ObligationStatus
func (s ObligationStatus) String() string {
	return string(s)
}

// CanAcceptPayment returns true if payments can be registered in this status
func (s ObligationStatus) CanAcceptPayment() bool {
	return s == ObligationStatusPending || s == ObligationStatusPartial || s == ObligationStatusOverdue
}

// IsActive returns true for statuses that still carry an open balance.
// Used by the bulk generator's duplicate check.
func (s ObligationStatus) IsActive() bool {
	return s == ObligationStatusPending || s == ObligationStatusPartial || s == ObligationStatusOverdue
}

// deriveStatus is the single status-derivation rule shared by every
// balance-mutating path. prior is the status the obligation held before any
// payment touched it, restored when payments void back down to zero.
func deriveStatus(balance, paid decimal.Decimal, prior ObligationStatus) ObligationStatus {
	if balance.LessThanOrEqual(decimal.Zero) {
		return ObligationStatusPaid
	}
	if paid.GreaterThan(decimal.Zero) {
		return ObligationStatusPartial
	}
	if prior == "" {
		return ObligationStatusPending
	}
	return prior
}

// flooredSub returns max(0, a - b)
func flooredSub(a, b decimal.Decimal) decimal.Decimal {
	r := a.Sub(b)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// FinancialObligation is a single charge owed by one third party for one
// concept, with its own balance lifecycle. Its monetary fields obey two
// invariants at rest:
//
//	TotalAmount = max(0, OriginalAmount - DiscountAmount)
//	Balance     = max(0, TotalAmount - PaidAmount)
//
// Balance and status are mutated only through ApplyDiscount, Cancel and
// ApplyPaymentDelta; callers never write them directly.
type FinancialObligation struct {
	shared.TenantAggregateRoot
	// Reference is the human-readable document number from the OBLIGATION series
	Reference          string           `json:"reference" gorm:"not null;size:50;uniqueIndex:idx_obligation_tenant_ref,composite:tenant_id"`
	ThirdPartyID       uuid.UUID        `json:"third_party_id" gorm:"type:uuid;not null;index"`
	ThirdPartyName     string           `json:"third_party_name" gorm:"size:200"`
	ConceptID          uuid.UUID        `json:"concept_id" gorm:"type:uuid;not null;index"`
	ConceptName        string           `json:"concept_name" gorm:"size:150"`
	OriginalAmount     decimal.Decimal  `json:"original_amount" gorm:"type:decimal(18,2);not null"`
	DiscountAmount     decimal.Decimal  `json:"discount_amount" gorm:"type:decimal(18,2);not null"`
	TotalAmount        decimal.Decimal  `json:"total_amount" gorm:"type:decimal(18,2);not null"`
	PaidAmount         decimal.Decimal  `json:"paid_amount" gorm:"type:decimal(18,2);not null"`
	Balance            decimal.Decimal  `json:"balance" gorm:"type:decimal(18,2);not null"`
	Status             ObligationStatus `json:"status" gorm:"not null;size:20;index"`
	// PriorStatus is the status held before the first payment; restored on full void
	PriorStatus        ObligationStatus `json:"prior_status" gorm:"size:20"`
	DueDate            *time.Time       `json:"due_date" gorm:"index"`
	DiscountReason     string           `json:"discount_reason"`
	DiscountApprovedBy *uuid.UUID       `json:"discount_approved_by" gorm:"type:uuid"`
	Notes              string           `json:"notes"`
	PaidAt             *time.Time       `json:"paid_at"`
	CancelledAt        *time.Time       `json:"cancelled_at"`
}

// TableName returns the table name for GORM
func (FinancialObligation) TableName() string {
	return "financial_obligations"
}

// NewFinancialObligation creates an obligation from a concept instantiation.
// originalAmount and discountAmount come from the concept defaults or the
// caller's overrides; totals and balance are derived here.
func NewFinancialObligation(
	tenantID uuid.UUID,
	reference string,
	thirdPartyID uuid.UUID,
	thirdPartyName string,
	conceptID uuid.UUID,
	conceptName string,
	originalAmount decimal.Decimal,
	discountAmount decimal.Decimal,
	dueDate *time.Time,
) (*FinancialObligation, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Obligation reference cannot be empty")
	}
	if thirdPartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Third party ID cannot be empty")
	}
	if conceptID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Concept ID cannot be empty")
	}
	if originalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Original amount cannot be negative")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount amount cannot be negative")
	}

	total := flooredSub(originalAmount, discountAmount)

	o := &FinancialObligation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Reference:           reference,
		ThirdPartyID:        thirdPartyID,
		ThirdPartyName:      thirdPartyName,
		ConceptID:           conceptID,
		ConceptName:         conceptName,
		OriginalAmount:      originalAmount,
		DiscountAmount:      discountAmount,
		TotalAmount:         total,
		PaidAmount:          decimal.Zero,
		Balance:             total,
		Status:              ObligationStatusPending,
		PriorStatus:         ObligationStatusPending,
		DueDate:             dueDate,
	}

	// An obligation fully covered by its discount at creation is born paid
	if o.Balance.LessThanOrEqual(decimal.Zero) && o.TotalAmount.IsZero() && discountAmount.GreaterThan(decimal.Zero) {
		now := time.Now()
		o.Status = ObligationStatusPaid
		o.PaidAt = &now
	}

	o.AddDomainEvent(NewObligationCreatedEvent(o))

	return o, nil
}

// ApplyDiscount sets the discount and recomputes totals. Rejected once the
// obligation is PAID or CANCELLED. If the new balance reaches zero the
// obligation becomes PAID; an existing partial-payment status is otherwise
// preserved rather than forced back to PENDING.
func (o *FinancialObligation) ApplyDiscount(discountAmount decimal.Decimal, reason string, approvedBy uuid.UUID) error {
	if o.Status == ObligationStatusPaid || o.Status == ObligationStatusCancelled {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot apply discount to obligation in %s status", o.Status)
	}
	if discountAmount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Discount amount cannot be negative")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Discount reason is required")
	}

	o.DiscountAmount = discountAmount
	o.DiscountReason = strings.TrimSpace(reason)
	o.DiscountApprovedBy = &approvedBy
	o.TotalAmount = flooredSub(o.OriginalAmount, o.DiscountAmount)
	o.Balance = flooredSub(o.TotalAmount, o.PaidAmount)

	if o.Balance.LessThanOrEqual(decimal.Zero) {
		now := time.Now()
		o.Status = ObligationStatusPaid
		o.PaidAt = &now
	}

	o.markUpdated()
	o.AddDomainEvent(NewObligationDiscountedEvent(o))

	return nil
}

// Cancel terminally cancels the obligation. PAID obligations cannot be
// cancelled. Amounts are left untouched for audit; the reason is appended
// to the free-text notes.
func (o *FinancialObligation) Cancel(reason string) error {
	if o.Status == ObligationStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a paid obligation")
	}
	if o.Status == ObligationStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Obligation is already cancelled")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason is required")
	}

	now := time.Now()
	o.Status = ObligationStatusCancelled
	o.CancelledAt = &now
	if o.Notes != "" {
		o.Notes += "\n"
	}
	o.Notes += fmt.Sprintf("Cancelled: %s", strings.TrimSpace(reason))

	o.markUpdated()
	o.AddDomainEvent(NewObligationCancelledEvent(o, reason))

	return nil
}

// ApplyPaymentDelta is the single authoritative balance-mutation primitive.
// Payment registration calls it with a positive delta, void with a negative
// one. The resulting status is derived in one place: PAID when the balance
// reaches zero, PARTIAL while payments are outstanding, and the pre-payment
// status (PENDING or OVERDUE) once payments void back down to zero.
func (o *FinancialObligation) ApplyPaymentDelta(delta decimal.Decimal) error {
	if o.Status == ObligationStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot touch the balance of a cancelled obligation")
	}

	newPaid := o.PaidAmount.Add(delta)
	if newPaid.IsNegative() {
		return shared.NewDomainErrorf("INVALID_INPUT", "Payment delta %s would drive paid amount below zero", delta)
	}

	// Remember the pre-payment status the first time money lands
	if o.PaidAmount.IsZero() && newPaid.GreaterThan(decimal.Zero) && o.Status.IsActive() {
		o.PriorStatus = o.Status
	}

	o.PaidAmount = newPaid
	o.Balance = flooredSub(o.TotalAmount, o.PaidAmount)

	previous := o.Status
	o.Status = deriveStatus(o.Balance, o.PaidAmount, o.PriorStatus)

	switch {
	case o.Status == ObligationStatusPaid && previous != ObligationStatusPaid:
		now := time.Now()
		o.PaidAt = &now
		o.AddDomainEvent(NewObligationPaidEvent(o))
	case o.Status != ObligationStatusPaid && previous == ObligationStatusPaid:
		o.PaidAt = nil
	}

	o.markUpdated()

	return nil
}

// MarkOverdue flags the obligation as past due. Called by the overdue sweep
// collaborator, never by ledger mutations themselves.
func (o *FinancialObligation) MarkOverdue() error {
	if o.Status != ObligationStatusPending && o.Status != ObligationStatusPartial {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot mark obligation in %s status as overdue", o.Status)
	}
	if o.PaidAmount.IsZero() {
		o.PriorStatus = ObligationStatusOverdue
		o.Status = ObligationStatusOverdue
	} else {
		// Partially paid obligations keep PARTIAL; only the restore point moves
		o.PriorStatus = ObligationStatusOverdue
	}
	o.markUpdated()
	return nil
}

// AppendNote appends to the free-text audit note
func (o *FinancialObligation) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if o.Notes != "" {
		o.Notes += "\n"
	}
	o.Notes += note
	o.markUpdated()
}

// IsOverdue reports whether the due date has passed for a still-open obligation
func (o *FinancialObligation) IsOverdue(now time.Time) bool {
	if !o.Status.IsActive() || o.DueDate == nil {
		return false
	}
	return now.After(*o.DueDate)
}

// GetTotalAmountMoney returns the effective charge total as Money
func (o *FinancialObligation) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(o.TotalAmount)
}

// GetPaidAmountMoney returns the accumulated payments as Money
func (o *FinancialObligation) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(o.PaidAmount)
}

// GetBalanceMoney returns the open balance as Money
func (o *FinancialObligation) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(o.Balance)
}

func (o *FinancialObligation) markUpdated() {
	o.Touch()
	o.IncrementVersion()
}
