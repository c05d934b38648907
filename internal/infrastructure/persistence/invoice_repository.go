package persistence

import (
	"context"
	"errors"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID for a specific institution
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FinancialInvoice, error) {
	var invoice ledger.FinancialInvoice
	if err := r.db.WithContext(ctx).
		First(&invoice, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByInvoiceNumber finds an invoice by its document number
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*ledger.FinancialInvoice, error) {
	var invoice ledger.FinancialInvoice
	if err := r.db.WithContext(ctx).
		First(&invoice, "tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAllForTenant finds all invoices for an institution with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]ledger.FinancialInvoice, error) {
	var invoices []ledger.FinancialInvoice
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	query = query.Order(orderClause(filter.Filter, invoiceSortFields, "created_at")).
		Limit(filter.Limit()).
		Offset(filter.Offset())

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// CountForTenant counts invoices for an institution with filtering
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.FinancialInvoice{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *ledger.FinancialInvoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter ledger.InvoiceFilter) *gorm.DB {
	if filter.ThirdPartyID != nil {
		query = query.Where("third_party_id = ?", *filter.ThirdPartyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ? OR third_party_name ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormInvoiceRepository implements the interface
var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
