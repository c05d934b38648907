package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForTenant finds a payment by ID for a specific institution
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FinancialPayment, error) {
	var payment ledger.FinancialPayment
	if err := r.db.WithContext(ctx).
		First(&payment, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByReceiptNumber finds a payment by its receipt number
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*ledger.FinancialPayment, error) {
	var payment ledger.FinancialPayment
	if err := r.db.WithContext(ctx).
		First(&payment, "tenant_id = ? AND receipt_number = ?", tenantID, receiptNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindAllForTenant finds all payments for an institution with filtering
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.FinancialPayment, error) {
	var payments []ledger.FinancialPayment
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	query = query.Order(orderClause(filter.Filter, paymentSortFields, "payment_date")).
		Limit(filter.Limit()).
		Offset(filter.Offset())

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// CountForTenant counts payments for an institution with filtering
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.FinancialPayment{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByThirdParty counts payments attached to a third party, voided included
func (r *GormPaymentRepository) CountByThirdParty(ctx context.Context, tenantID, thirdPartyID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialPayment{}).
		Where("tenant_id = ? AND third_party_id = ?", tenantID, thirdPartyID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// bucketRow receives one aggregated method row of the cash-close query
type bucketRow struct {
	Method ledger.PaymentMethod
	Total  decimal.Decimal
	Count  int
}

// SumBucketsInWindow aggregates non-voided payments inside [from, to] into
// the cash-close buckets. Grouping happens per method in SQL; the
// method-to-bucket mapping is applied in the domain so it lives in one place.
func (r *GormPaymentRepository) SumBucketsInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (ledger.PaymentBuckets, int, error) {
	var rows []bucketRow
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialPayment{}).
		Select("method, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("tenant_id = ? AND voided = ? AND payment_date >= ? AND payment_date <= ?",
			tenantID, false, from, to).
		Group("method").
		Scan(&rows).Error; err != nil {
		return ledger.PaymentBuckets{}, 0, err
	}

	var buckets ledger.PaymentBuckets
	total := 0
	for _, row := range rows {
		buckets.Add(row.Method.Bucket(), row.Total)
		total += row.Count
	}
	return buckets, total, nil
}

// SumCollectedInWindow totals non-voided payments inside [from, to]
func (r *GormPaymentRepository) SumCollectedInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialPayment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ? AND voided = ? AND payment_date >= ? AND payment_date <= ?",
			tenantID, false, from, to).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *ledger.FinancialPayment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter ledger.PaymentFilter) *gorm.DB {
	if filter.ThirdPartyID != nil {
		query = query.Where("third_party_id = ?", *filter.ThirdPartyID)
	}
	if filter.ObligationID != nil {
		query = query.Where("obligation_id = ?", *filter.ObligationID)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", *filter.To)
	}
	if !filter.IncludeVoided {
		query = query.Where("voided = ?", false)
	}
	if filter.OnlyStandalone {
		query = query.Where("obligation_id IS NULL")
	}
	if filter.Search != "" {
		query = query.Where("receipt_number ILIKE ? OR external_ref ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormPaymentRepository implements the interface
var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
