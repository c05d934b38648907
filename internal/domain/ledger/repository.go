package ledger

import (
	"context"
	"time"

	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeConceptRepository defines the persistence contract for charge concepts
type ChargeConceptRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ChargeConcept, error)
	// FindByName matches active and inactive concepts; duplicate names are
	// rejected even against deactivated templates.
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*ChargeConcept, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ConceptFilter) ([]ChargeConcept, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ConceptFilter) (int64, error)
	CountObligationsForConcept(ctx context.Context, tenantID, conceptID uuid.UUID) (int64, error)
	Save(ctx context.Context, c *ChargeConcept) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ConceptFilter defines filtering options for concept queries
type ConceptFilter struct {
	shared.Filter
	ActiveOnly bool
	Recurring  *bool
}

// ObligationFilter defines filtering options for obligation queries
type ObligationFilter struct {
	shared.Filter
	ThirdPartyID *uuid.UUID
	ConceptID    *uuid.UUID
	Status       ObligationStatus
	DueFrom      *time.Time
	DueTo        *time.Time
}

// ObligationRepository defines the persistence contract for obligations
type ObligationRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FinancialObligation, error)
	// FindByIDForTenantLocked loads the row under a row-level write lock.
	// Only meaningful inside a transaction; the lock serializes concurrent
	// balance mutations against the same obligation.
	FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*FinancialObligation, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*FinancialObligation, error)
	// FindActiveByConceptAndParty returns the open (PENDING/PARTIAL/OVERDUE)
	// obligation for a (thirdParty, concept) pair, or ErrNotFound.
	FindActiveByConceptAndParty(ctx context.Context, tenantID, conceptID, thirdPartyID uuid.UUID) (*FinancialObligation, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ObligationFilter) ([]FinancialObligation, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ObligationFilter) (int64, error)
	CountByThirdParty(ctx context.Context, tenantID, thirdPartyID uuid.UUID) (int64, error)
	SumBalanceForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
	// TenantsWithOpenObligations lists institutions holding at least one
	// open obligation. The overdue sweeper iterates over it.
	TenantsWithOpenObligations(ctx context.Context) ([]uuid.UUID, error)
	// FindPastDueOpen lists every PENDING or PARTIAL obligation whose due
	// date has passed, unpaginated. The overdue sweep walks the full set.
	FindPastDueOpen(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]FinancialObligation, error)
	Save(ctx context.Context, o *FinancialObligation) error
	// SaveGuarded persists with an optimistic version check and reports
	// CONCURRENCY_CONFLICT when another writer got there first.
	SaveGuarded(ctx context.Context, o *FinancialObligation) error
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	ThirdPartyID   *uuid.UUID
	ObligationID   *uuid.UUID
	Method         PaymentMethod
	From           *time.Time
	To             *time.Time
	IncludeVoided  bool
	OnlyStandalone bool
}

// PaymentRepository defines the persistence contract for payments
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FinancialPayment, error)
	FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*FinancialPayment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]FinancialPayment, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)
	CountByThirdParty(ctx context.Context, tenantID, thirdPartyID uuid.UUID) (int64, error)
	// SumBucketsInWindow aggregates non-voided payments inside [from, to]
	// into the cash-close buckets and also returns the row count.
	SumBucketsInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (PaymentBuckets, int, error)
	SumCollectedInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	Save(ctx context.Context, p *FinancialPayment) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	ThirdPartyID *uuid.UUID
	Status       InvoiceStatus
	From         *time.Time
	To           *time.Time
}

// InvoiceRepository defines the persistence contract for invoices
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FinancialInvoice, error)
	FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*FinancialInvoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]FinancialInvoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)
	Save(ctx context.Context, inv *FinancialInvoice) error
}

// CashCloseRepository defines the persistence contract for register closes
type CashCloseRepository interface {
	FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*CashRegisterClose, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]CashRegisterClose, error)
	// Upsert writes the single row for (tenant, date), overwriting an
	// existing close for the same day.
	Upsert(ctx context.Context, c *CashRegisterClose) error
}

// LedgerTx exposes the repositories bound to one database transaction.
// Everything obtained through it commits or rolls back together.
type LedgerTx interface {
	Concepts() ChargeConceptRepository
	Obligations() ObligationRepository
	Payments() PaymentRepository
	Invoices() InvoiceRepository
	CashCloses() CashCloseRepository
	Sequences() SequenceAllocator
	ThirdParties() party.ThirdPartyRepository
}

// TransactionManager runs a unit of work inside a single database
// transaction. An error returned from fn rolls everything back, leaving
// ledger state unchanged.
type TransactionManager interface {
	Do(ctx context.Context, fn func(tx LedgerTx) error) error
}
