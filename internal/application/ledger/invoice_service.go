package ledger

import (
	"context"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService manages billing documents
type InvoiceService struct {
	txm      ledger.TransactionManager
	invoices ledger.InvoiceRepository
	logger   *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(txm ledger.TransactionManager, invoices ledger.InvoiceRepository, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{txm: txm, invoices: invoices, logger: logger}
}

// InvoiceLineRequest is one requested invoice line
type InvoiceLineRequest struct {
	Description  string          `json:"description" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ObligationID *uuid.UUID      `json:"obligation_id"`
}

// CreateInvoiceRequest carries the data for a new draft invoice
type CreateInvoiceRequest struct {
	ThirdPartyID uuid.UUID            `json:"third_party_id" binding:"required"`
	Lines        []InvoiceLineRequest `json:"lines" binding:"required,min=1"`
	TaxAmount    decimal.Decimal      `json:"tax_amount"`
	Discount     decimal.Decimal      `json:"discount"`
	Notes        string               `json:"notes"`
}

// CreateDraft builds a draft invoice. Lines referencing obligations are
// validated against the ledger.
func (s *InvoiceService) CreateDraft(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var created *ledger.FinancialInvoice

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		tp, err := tx.ThirdParties().FindByIDForTenant(ctx, tenantID, req.ThirdPartyID)
		if err != nil {
			return err
		}

		lines := make([]ledger.InvoiceLine, 0, len(req.Lines))
		for _, lr := range req.Lines {
			if lr.ObligationID != nil {
				if _, err := tx.Obligations().FindByIDForTenant(ctx, tenantID, *lr.ObligationID); err != nil {
					return err
				}
			}
			line, err := ledger.NewInvoiceLine(lr.Description, lr.Quantity, lr.UnitPrice, lr.ObligationID)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		inv, err := ledger.NewFinancialInvoice(tenantID, tp.ID, tp.Name, lines)
		if err != nil {
			return err
		}
		if !req.TaxAmount.IsZero() || !req.Discount.IsZero() {
			if err := inv.SetAdjustments(req.TaxAmount, req.Discount); err != nil {
				return err
			}
		}
		inv.Notes = req.Notes

		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice drafted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", created.ID.String()),
		zap.String("total", created.Total.String()),
	)

	return toInvoiceResponse(created), nil
}

// Issue allocates the invoice number and moves the draft to ISSUED. The
// sequence slot and the status change commit together.
func (s *InvoiceService) Issue(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	var issued *ledger.FinancialInvoice

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		inv, err := tx.Invoices().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}

		number, err := tx.Sequences().Allocate(ctx, tenantID, ledger.SeriesInvoice)
		if err != nil {
			return err
		}
		if err := inv.Issue(number); err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		issued = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", id.String()),
		zap.String("invoice_number", issued.InvoiceNumber),
	)

	return toInvoiceResponse(issued), nil
}

// MarkPaid records full settlement of an issued invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// CancelInvoiceRequest carries the cancellation reason
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Cancel terminally cancels a draft or issued invoice
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// Get returns an invoice by id
func (s *InvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// List returns invoices matching the filter
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]InvoiceResponse, int64, error) {
	invoices, err := s.invoices.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, total, nil
}
