package ledger

import (
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the ledger context
const (
	EventTypeConceptCreated       = "ledger.concept.created"
	EventTypeObligationCreated    = "ledger.obligation.created"
	EventTypeObligationDiscounted = "ledger.obligation.discounted"
	EventTypeObligationCancelled  = "ledger.obligation.cancelled"
	EventTypeObligationPaid       = "ledger.obligation.paid"
	EventTypePaymentRegistered    = "ledger.payment.registered"
	EventTypePaymentVoided        = "ledger.payment.voided"
	EventTypeInvoiceIssued        = "ledger.invoice.issued"
	EventTypeCashRegisterClosed   = "ledger.cash_register.closed"
)

// ChargeConceptCreatedEvent is raised when a charge concept is created
type ChargeConceptCreatedEvent struct {
	shared.BaseDomainEvent
	Name          string          `json:"name"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
}

// NewChargeConceptCreatedEvent creates a ChargeConceptCreatedEvent
func NewChargeConceptCreatedEvent(c *ChargeConcept) *ChargeConceptCreatedEvent {
	return &ChargeConceptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConceptCreated, "ChargeConcept", c.ID, c.TenantID),
		Name:            c.Name,
		DefaultAmount:   c.DefaultAmount,
	}
}

// ObligationCreatedEvent is raised when an obligation is instantiated
type ObligationCreatedEvent struct {
	shared.BaseDomainEvent
	Reference    string          `json:"reference"`
	ThirdPartyID uuid.UUID       `json:"third_party_id"`
	ConceptID    uuid.UUID       `json:"concept_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewObligationCreatedEvent creates an ObligationCreatedEvent
func NewObligationCreatedEvent(o *FinancialObligation) *ObligationCreatedEvent {
	return &ObligationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationCreated, "FinancialObligation", o.ID, o.TenantID),
		Reference:       o.Reference,
		ThirdPartyID:    o.ThirdPartyID,
		ConceptID:       o.ConceptID,
		TotalAmount:     o.TotalAmount,
	}
}

// ObligationDiscountedEvent is raised when a discount is applied
type ObligationDiscountedEvent struct {
	shared.BaseDomainEvent
	Reference      string          `json:"reference"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NewBalance     decimal.Decimal `json:"new_balance"`
}

// NewObligationDiscountedEvent creates an ObligationDiscountedEvent
func NewObligationDiscountedEvent(o *FinancialObligation) *ObligationDiscountedEvent {
	return &ObligationDiscountedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationDiscounted, "FinancialObligation", o.ID, o.TenantID),
		Reference:       o.Reference,
		DiscountAmount:  o.DiscountAmount,
		NewBalance:      o.Balance,
	}
}

// ObligationCancelledEvent is raised on terminal cancellation
type ObligationCancelledEvent struct {
	shared.BaseDomainEvent
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// NewObligationCancelledEvent creates an ObligationCancelledEvent
func NewObligationCancelledEvent(o *FinancialObligation, reason string) *ObligationCancelledEvent {
	return &ObligationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationCancelled, "FinancialObligation", o.ID, o.TenantID),
		Reference:       o.Reference,
		Reason:          reason,
	}
}

// ObligationPaidEvent is raised when the balance reaches zero
type ObligationPaidEvent struct {
	shared.BaseDomainEvent
	Reference  string          `json:"reference"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// NewObligationPaidEvent creates an ObligationPaidEvent
func NewObligationPaidEvent(o *FinancialObligation) *ObligationPaidEvent {
	return &ObligationPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationPaid, "FinancialObligation", o.ID, o.TenantID),
		Reference:       o.Reference,
		PaidAmount:      o.PaidAmount,
	}
}

// PaymentRegisteredEvent is raised when a payment row is recorded
type PaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	ThirdPartyID  uuid.UUID       `json:"third_party_id"`
	ObligationID  *uuid.UUID      `json:"obligation_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
}

// NewPaymentRegisteredEvent creates a PaymentRegisteredEvent
func NewPaymentRegisteredEvent(p *FinancialPayment) *PaymentRegisteredEvent {
	return &PaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRegistered, "FinancialPayment", p.ID, p.TenantID),
		ReceiptNumber:   p.ReceiptNumber,
		ThirdPartyID:    p.ThirdPartyID,
		ObligationID:    p.ObligationID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentVoidedEvent is raised when a payment is voided
type PaymentVoidedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// NewPaymentVoidedEvent creates a PaymentVoidedEvent
func NewPaymentVoidedEvent(p *FinancialPayment) *PaymentVoidedEvent {
	return &PaymentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentVoided, "FinancialPayment", p.ID, p.TenantID),
		ReceiptNumber:   p.ReceiptNumber,
		Amount:          p.Amount,
		Reason:          p.VoidReason,
	}
}

// InvoiceIssuedEvent is raised when a draft invoice is issued
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoiceIssuedEvent creates an InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *FinancialInvoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, "FinancialInvoice", inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Total:           inv.Total,
	}
}

// CashRegisterClosedEvent is raised on every close (including re-closes)
type CashRegisterClosedEvent struct {
	shared.BaseDomainEvent
	CloseDate  string          `json:"close_date"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// NewCashRegisterClosedEvent creates a CashRegisterClosedEvent
func NewCashRegisterClosedEvent(c *CashRegisterClose) *CashRegisterClosedEvent {
	return &CashRegisterClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashRegisterClosed, "CashRegisterClose", c.ID, c.TenantID),
		CloseDate:       c.CloseDate.Format("2006-01-02"),
		GrandTotal:      c.GrandTotal,
	}
}
