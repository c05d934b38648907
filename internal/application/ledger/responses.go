package ledger

import (
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConceptResponse represents a charge concept in API responses
type ConceptResponse struct {
	ID            uuid.UUID            `json:"id"`
	TenantID      uuid.UUID            `json:"tenant_id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	DefaultAmount decimal.Decimal      `json:"default_amount"`
	Recurring     bool                 `json:"recurring"`
	LateFee       ledger.LateFeePolicy `json:"late_fee"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Active        bool                 `json:"active"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toConceptResponse(c *ledger.ChargeConcept) *ConceptResponse {
	return &ConceptResponse{
		ID:            c.ID,
		TenantID:      c.TenantID,
		Name:          c.Name,
		Description:   c.Description,
		DefaultAmount: c.DefaultAmount,
		Recurring:     c.Recurring,
		LateFee:       c.LateFee,
		DueDate:       c.DueDate,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ObligationResponse represents an obligation in API responses
type ObligationResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	Reference          string          `json:"reference"`
	ThirdPartyID       uuid.UUID       `json:"third_party_id"`
	ThirdPartyName     string          `json:"third_party_name"`
	ConceptID          uuid.UUID       `json:"concept_id"`
	ConceptName        string          `json:"concept_name"`
	OriginalAmount     decimal.Decimal `json:"original_amount"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	Balance            decimal.Decimal `json:"balance"`
	Status             string          `json:"status"`
	DueDate            *time.Time      `json:"due_date,omitempty"`
	DiscountReason     string          `json:"discount_reason,omitempty"`
	DiscountApprovedBy *uuid.UUID      `json:"discount_approved_by,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func toObligationResponse(o *ledger.FinancialObligation) *ObligationResponse {
	return &ObligationResponse{
		ID:                 o.ID,
		TenantID:           o.TenantID,
		Reference:          o.Reference,
		ThirdPartyID:       o.ThirdPartyID,
		ThirdPartyName:     o.ThirdPartyName,
		ConceptID:          o.ConceptID,
		ConceptName:        o.ConceptName,
		OriginalAmount:     o.OriginalAmount,
		DiscountAmount:     o.DiscountAmount,
		TotalAmount:        o.TotalAmount,
		PaidAmount:         o.PaidAmount,
		Balance:            o.Balance,
		Status:             o.Status.String(),
		DueDate:            o.DueDate,
		DiscountReason:     o.DiscountReason,
		DiscountApprovedBy: o.DiscountApprovedBy,
		Notes:              o.Notes,
		PaidAt:             o.PaidAt,
		CancelledAt:        o.CancelledAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	ReceiptNumber string          `json:"receipt_number"`
	ThirdPartyID  uuid.UUID       `json:"third_party_id"`
	ObligationID  *uuid.UUID      `json:"obligation_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	ExternalRef   string          `json:"external_ref,omitempty"`
	ReceivedBy    uuid.UUID       `json:"received_by"`
	PaymentDate   time.Time       `json:"payment_date"`
	Notes         string          `json:"notes,omitempty"`
	Voided        bool            `json:"voided"`
	VoidReason    string          `json:"void_reason,omitempty"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toPaymentResponse(p *ledger.FinancialPayment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		ReceiptNumber: p.ReceiptNumber,
		ThirdPartyID:  p.ThirdPartyID,
		ObligationID:  p.ObligationID,
		Amount:        p.Amount,
		Method:        p.Method.String(),
		ExternalRef:   p.ExternalRef,
		ReceivedBy:    p.ReceivedBy,
		PaymentDate:   p.PaymentDate,
		Notes:         p.Notes,
		Voided:        p.Voided,
		VoidReason:    p.VoidReason,
		VoidedAt:      p.VoidedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID            `json:"id"`
	TenantID       uuid.UUID            `json:"tenant_id"`
	InvoiceNumber  string               `json:"invoice_number,omitempty"`
	ThirdPartyID   uuid.UUID            `json:"third_party_id"`
	ThirdPartyName string               `json:"third_party_name"`
	Status         string               `json:"status"`
	Lines          []ledger.InvoiceLine `json:"lines"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Total          decimal.Decimal      `json:"total"`
	Notes          string               `json:"notes,omitempty"`
	IssuedAt       *time.Time           `json:"issued_at,omitempty"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason   string               `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func toInvoiceResponse(inv *ledger.FinancialInvoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:             inv.ID,
		TenantID:       inv.TenantID,
		InvoiceNumber:  inv.InvoiceNumber,
		ThirdPartyID:   inv.ThirdPartyID,
		ThirdPartyName: inv.ThirdPartyName,
		Status:         string(inv.Status),
		Lines:          inv.Lines,
		Subtotal:       inv.Subtotal,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		Total:          inv.Total,
		Notes:          inv.Notes,
		IssuedAt:       inv.IssuedAt,
		PaidAt:         inv.PaidAt,
		CancelledAt:    inv.CancelledAt,
		CancelReason:   inv.CancelReason,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// CashCloseResponse represents a cash register close in API responses
type CashCloseResponse struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	CloseDate         time.Time        `json:"close_date"`
	CashTotal         decimal.Decimal  `json:"cash_total"`
	TransferTotal     decimal.Decimal  `json:"transfer_total"`
	CardTotal         decimal.Decimal  `json:"card_total"`
	OtherTotal        decimal.Decimal  `json:"other_total"`
	GrandTotal        decimal.Decimal  `json:"grand_total"`
	PhysicalCashCount *decimal.Decimal `json:"physical_cash_count,omitempty"`
	Variance          *decimal.Decimal `json:"variance,omitempty"`
	PaymentCount      int              `json:"payment_count"`
	Notes             string           `json:"notes,omitempty"`
	ClosedBy          uuid.UUID        `json:"closed_by"`
	CreatedAt         time.Time        `json:"created_at"`
}

func toCashCloseResponse(c *ledger.CashRegisterClose) *CashCloseResponse {
	return &CashCloseResponse{
		ID:                c.ID,
		TenantID:          c.TenantID,
		CloseDate:         c.CloseDate,
		CashTotal:         c.CashTotal,
		TransferTotal:     c.TransferTotal,
		CardTotal:         c.CardTotal,
		OtherTotal:        c.OtherTotal,
		GrandTotal:        c.GrandTotal,
		PhysicalCashCount: c.PhysicalCashCount,
		Variance:          c.Variance,
		PaymentCount:      c.PaymentCount,
		Notes:             c.Notes,
		ClosedBy:          c.ClosedBy,
		CreatedAt:         c.CreatedAt,
	}
}
