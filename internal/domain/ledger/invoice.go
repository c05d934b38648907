package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/edufin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true once the invoice can no longer change
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// InvoiceLine is one billed line. Stored as JSONB inside the invoice
// aggregate; LineTotal is always quantity x unit price.
type InvoiceLine struct {
	ID           uuid.UUID       `json:"id"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
	ObligationID *uuid.UUID      `json:"obligation_id,omitempty"`
}

// InvoiceLines implements GORM Scanner/Valuer for JSONB storage
type InvoiceLines []InvoiceLine

// Value implements driver.Valuer
func (l InvoiceLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *InvoiceLines) Scan(value interface{}) error {
	if value == nil {
		*l = InvoiceLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InvoiceLines: unsupported type")
	}

	if len(bytes) == 0 {
		*l = InvoiceLines{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// NewInvoiceLine builds a line with its total derived from quantity and price
func NewInvoiceLine(description string, quantity, unitPrice decimal.Decimal, obligationID *uuid.UUID) (InvoiceLine, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return InvoiceLine{}, shared.NewDomainError("INVALID_INPUT", "Line description cannot be empty")
	}
	if !quantity.IsPositive() {
		return InvoiceLine{}, shared.NewDomainError("INVALID_INPUT", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return InvoiceLine{}, shared.NewDomainError("INVALID_INPUT", "Line unit price cannot be negative")
	}
	return InvoiceLine{
		ID:           uuid.New(),
		Description:  description,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		LineTotal:    quantity.Mul(unitPrice),
		ObligationID: obligationID,
	}, nil
}

// FinancialInvoice is a billing document over one or more line items,
// optionally linked to obligations. DRAFT on creation; issuing allocates
// the invoice number's sequence slot and stamps the issue date; CANCELLED
// is terminal and requires a reason.
type FinancialInvoice struct {
	shared.TenantAggregateRoot
	// InvoiceNumber comes from the INVOICE series, set at issue
	InvoiceNumber  string          `json:"invoice_number" gorm:"size:50;index"`
	ThirdPartyID   uuid.UUID       `json:"third_party_id" gorm:"type:uuid;not null;index"`
	ThirdPartyName string          `json:"third_party_name" gorm:"size:200"`
	Status         InvoiceStatus   `json:"status" gorm:"not null;size:20;index"`
	Lines          InvoiceLines    `json:"lines" gorm:"type:jsonb"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(18,2);not null"`
	TaxAmount      decimal.Decimal `json:"tax_amount" gorm:"type:decimal(18,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:decimal(18,2);not null"`
	Total          decimal.Decimal `json:"total" gorm:"type:decimal(18,2);not null"`
	Notes          string          `json:"notes"`
	IssuedAt       *time.Time      `json:"issued_at"`
	PaidAt         *time.Time      `json:"paid_at"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	CancelReason   string          `json:"cancel_reason"`
}

// TableName returns the table name for GORM
func (FinancialInvoice) TableName() string {
	return "financial_invoices"
}

// NewFinancialInvoice creates a draft invoice
func NewFinancialInvoice(tenantID, thirdPartyID uuid.UUID, thirdPartyName string, lines []InvoiceLine) (*FinancialInvoice, error) {
	if thirdPartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Third party ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice requires at least one line")
	}

	inv := &FinancialInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ThirdPartyID:        thirdPartyID,
		ThirdPartyName:      thirdPartyName,
		Status:              InvoiceStatusDraft,
		Lines:               lines,
		TaxAmount:           decimal.Zero,
		DiscountAmount:      decimal.Zero,
	}
	inv.recalculate()

	return inv, nil
}

// AddLine appends a line. Draft only.
func (inv *FinancialInvoice) AddLine(line InvoiceLine) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot modify lines of a %s invoice", inv.Status)
	}
	inv.Lines = append(inv.Lines, line)
	inv.recalculate()
	inv.markUpdated()
	return nil
}

// SetAdjustments sets tax and discount amounts. Draft only.
func (inv *FinancialInvoice) SetAdjustments(tax, discount decimal.Decimal) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot adjust a %s invoice", inv.Status)
	}
	if tax.IsNegative() || discount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Tax and discount cannot be negative")
	}
	inv.TaxAmount = tax
	inv.DiscountAmount = discount
	inv.recalculate()
	inv.markUpdated()
	return nil
}

// Issue assigns the sequential invoice number and stamps the issue date
func (inv *FinancialInvoice) Issue(invoiceNumber string) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot issue invoice in %s status", inv.Status)
	}
	if invoiceNumber == "" {
		return shared.NewDomainError("INVALID_INPUT", "Invoice number cannot be empty")
	}

	now := time.Now()
	inv.InvoiceNumber = invoiceNumber
	inv.Status = InvoiceStatusIssued
	inv.IssuedAt = &now
	inv.markUpdated()

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return nil
}

// MarkPaid records full settlement of an issued invoice
func (inv *FinancialInvoice) MarkPaid() error {
	if inv.Status != InvoiceStatusIssued {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot mark invoice in %s status as paid", inv.Status)
	}
	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &now
	inv.markUpdated()
	return nil
}

// Cancel terminally cancels the invoice with a reason
func (inv *FinancialInvoice) Cancel(reason string) error {
	if inv.Status.IsTerminal() {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot cancel invoice in %s status", inv.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason is required")
	}
	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = strings.TrimSpace(reason)
	inv.markUpdated()
	return nil
}

func (inv *FinancialInvoice) recalculate() {
	subtotal := decimal.Zero
	for _, line := range inv.Lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	inv.Subtotal = subtotal
	inv.Total = flooredSub(subtotal.Add(inv.TaxAmount), inv.DiscountAmount)
}

// GetTotalMoney returns the invoice total as Money
func (inv *FinancialInvoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyCOP(inv.Total)
}

func (inv *FinancialInvoice) markUpdated() {
	inv.Touch()
	inv.IncrementVersion()
}
