package ledger

import (
	"strings"
	"time"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the rail a payment came in on
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodPSE      PaymentMethod = "PSE" // Colombian bank-debit rail
	PaymentMethodWallet   PaymentMethod = "WALLET"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodPSE,
		PaymentMethodWallet, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// MethodBucket is the cash-close aggregation bucket a method rolls into
type MethodBucket string

const (
	BucketCash     MethodBucket = "CASH"
	BucketTransfer MethodBucket = "TRANSFER"
	BucketCard     MethodBucket = "CARD"
	BucketOther    MethodBucket = "OTHER"
)

// Bucket maps the method onto its cash-close bucket. Transfer-family rails
// (bank transfer, PSE, wallets) aggregate together.
func (m PaymentMethod) Bucket() MethodBucket {
	switch m {
	case PaymentMethodCash:
		return BucketCash
	case PaymentMethodTransfer, PaymentMethodPSE, PaymentMethodWallet:
		return BucketTransfer
	case PaymentMethodCard:
		return BucketCard
	default:
		return BucketOther
	}
}

// FinancialPayment is an append-only payment transaction. Voiding flags the
// row and reverses the obligation balance; the row itself is never deleted.
// A payment with no obligation link is a standalone receipt that affects no
// balance.
type FinancialPayment struct {
	shared.TenantAggregateRoot
	ReceiptNumber string          `json:"receipt_number" gorm:"not null;size:50;uniqueIndex:idx_payment_tenant_receipt,composite:tenant_id"`
	ThirdPartyID  uuid.UUID       `json:"third_party_id" gorm:"type:uuid;not null;index"`
	ObligationID  *uuid.UUID      `json:"obligation_id" gorm:"type:uuid;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	Method        PaymentMethod   `json:"method" gorm:"not null;size:20"`
	// ExternalRef carries the gateway / bank transaction reference
	ExternalRef string     `json:"external_ref" gorm:"size:100"`
	ReceivedBy  uuid.UUID  `json:"received_by" gorm:"type:uuid"`
	PaymentDate time.Time  `json:"payment_date" gorm:"not null;index"`
	Notes       string     `json:"notes"`
	Voided      bool       `json:"voided" gorm:"not null;default:false;index"`
	VoidReason  string     `json:"void_reason"`
	VoidedBy    *uuid.UUID `json:"voided_by" gorm:"type:uuid"`
	VoidedAt    *time.Time `json:"voided_at"`
}

// TableName returns the table name for GORM
func (FinancialPayment) TableName() string {
	return "financial_payments"
}

// NewFinancialPayment records a payment transaction
func NewFinancialPayment(
	tenantID uuid.UUID,
	receiptNumber string,
	thirdPartyID uuid.UUID,
	obligationID *uuid.UUID,
	amount decimal.Decimal,
	method PaymentMethod,
	receivedBy uuid.UUID,
	paymentDate time.Time,
) (*FinancialPayment, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receipt number cannot be empty")
	}
	if thirdPartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Third party ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Payment method %q is not valid", method)
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	p := &FinancialPayment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       receiptNumber,
		ThirdPartyID:        thirdPartyID,
		ObligationID:        obligationID,
		Amount:              amount,
		Method:              method,
		ReceivedBy:          receivedBy,
		PaymentDate:         paymentDate,
	}

	p.AddDomainEvent(NewPaymentRegisteredEvent(p))

	return p, nil
}

// Void flags the payment as voided. The caller is responsible for reversing
// the linked obligation balance in the same transaction.
func (p *FinancialPayment) Void(actor uuid.UUID, reason string) error {
	if p.Voided {
		return shared.NewDomainError("INVALID_STATE", "Payment is already voided")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Void reason is required")
	}

	now := time.Now()
	p.Voided = true
	p.VoidReason = strings.TrimSpace(reason)
	p.VoidedBy = &actor
	p.VoidedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentVoidedEvent(p))

	return nil
}

// CountsTowardTotals reports whether the payment participates in aggregate
// sums (collection stats, cash close). Voided rows stay visible for audit
// but never count.
func (p *FinancialPayment) CountsTowardTotals() bool {
	return !p.Voided
}

// GetAmountMoney returns the paid amount as Money
func (p *FinancialPayment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(p.Amount)
}
