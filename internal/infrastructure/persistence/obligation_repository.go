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
	"gorm.io/gorm/clause"
)

// GormObligationRepository implements ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByIDForTenant finds an obligation by ID for a specific institution
func (r *GormObligationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FinancialObligation, error) {
	var obligation ledger.FinancialObligation
	if err := r.db.WithContext(ctx).
		First(&obligation, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &obligation, nil
}

// FindByIDForTenantLocked loads the obligation under SELECT ... FOR UPDATE.
// Only meaningful inside a transaction; concurrent balance writers against
// the same row serialize here.
func (r *GormObligationRepository) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FinancialObligation, error) {
	var obligation ledger.FinancialObligation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&obligation, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &obligation, nil
}

// FindByReference finds an obligation by its document number
func (r *GormObligationRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*ledger.FinancialObligation, error) {
	var obligation ledger.FinancialObligation
	if err := r.db.WithContext(ctx).
		First(&obligation, "tenant_id = ? AND reference = ?", tenantID, reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &obligation, nil
}

// FindActiveByConceptAndParty returns the open obligation for a
// (thirdParty, concept) pair. Open means PENDING, PARTIAL or OVERDUE.
func (r *GormObligationRepository) FindActiveByConceptAndParty(ctx context.Context, tenantID, conceptID, thirdPartyID uuid.UUID) (*ledger.FinancialObligation, error) {
	var obligation ledger.FinancialObligation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND concept_id = ? AND third_party_id = ? AND status IN ?",
			tenantID, conceptID, thirdPartyID,
			[]ledger.ObligationStatus{
				ledger.ObligationStatusPending,
				ledger.ObligationStatusPartial,
				ledger.ObligationStatusOverdue,
			}).
		First(&obligation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &obligation, nil
}

// FindAllForTenant finds all obligations for an institution with filtering
func (r *GormObligationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) ([]ledger.FinancialObligation, error) {
	var obligations []ledger.FinancialObligation
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	query = query.Order(orderClause(filter.Filter, obligationSortFields, "created_at")).
		Limit(filter.Limit()).
		Offset(filter.Offset())

	if err := query.Find(&obligations).Error; err != nil {
		return nil, err
	}
	return obligations, nil
}

// CountForTenant counts obligations for an institution with filtering
func (r *GormObligationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.FinancialObligation{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByThirdParty counts obligations attached to a third party
func (r *GormObligationRepository) CountByThirdParty(ctx context.Context, tenantID, thirdPartyID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialObligation{}).
		Where("tenant_id = ? AND third_party_id = ?", tenantID, thirdPartyID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumBalanceForTenant totals the outstanding balance across open obligations
func (r *GormObligationRepository) SumBalanceForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialObligation{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]ledger.ObligationStatus{
				ledger.ObligationStatusPending,
				ledger.ObligationStatusPartial,
				ledger.ObligationStatusOverdue,
			}).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// TenantsWithOpenObligations lists institutions with at least one open obligation
func (r *GormObligationRepository) TenantsWithOpenObligations(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialObligation{}).
		Distinct().
		Where("status IN ?", []ledger.ObligationStatus{
			ledger.ObligationStatusPending,
			ledger.ObligationStatusPartial,
			ledger.ObligationStatusOverdue,
		}).
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// FindPastDueOpen lists past-due PENDING and PARTIAL obligations without
// pagination; the sweep must see every row, not the first page.
func (r *GormObligationRepository) FindPastDueOpen(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]ledger.FinancialObligation, error) {
	var obligations []ledger.FinancialObligation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND due_date < ? AND status IN ?", tenantID, asOf,
			[]ledger.ObligationStatus{
				ledger.ObligationStatusPending,
				ledger.ObligationStatusPartial,
			}).
		Find(&obligations).Error; err != nil {
		return nil, err
	}
	return obligations, nil
}

// Save creates or updates an obligation. A unique violation on the open
// (tenant, concept, third party) index surfaces as ALREADY_EXISTS so callers
// racing a concurrent insert can treat it as a duplicate.
func (r *GormObligationRepository) Save(ctx context.Context, o *ledger.FinancialObligation) error {
	if err := r.db.WithContext(ctx).Save(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError("ALREADY_EXISTS",
				"An open obligation already exists for this concept and third party")
		}
		return err
	}
	return nil
}

// SaveGuarded persists with an optimistic version check. The domain mutation
// already incremented Version, so the row must still hold Version-1. Updates
// go through an explicit column map: a struct update would skip zero values,
// and a full void must write back nil paid_at and zeroed amounts.
func (r *GormObligationRepository) SaveGuarded(ctx context.Context, o *ledger.FinancialObligation) error {
	result := r.db.WithContext(ctx).
		Model(o).
		Where("id = ? AND version = ?", o.ID, o.Version-1).
		Updates(map[string]any{
			"original_amount":      o.OriginalAmount,
			"discount_amount":      o.DiscountAmount,
			"total_amount":         o.TotalAmount,
			"paid_amount":          o.PaidAmount,
			"balance":              o.Balance,
			"status":               o.Status,
			"prior_status":         o.PriorStatus,
			"due_date":             o.DueDate,
			"discount_reason":      o.DiscountReason,
			"discount_approved_by": o.DiscountApprovedBy,
			"notes":                o.Notes,
			"paid_at":              o.PaidAt,
			"cancelled_at":         o.CancelledAt,
			"version":              o.Version,
			"updated_at":           o.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormObligationRepository) applyFilter(query *gorm.DB, filter ledger.ObligationFilter) *gorm.DB {
	if filter.ThirdPartyID != nil {
		query = query.Where("third_party_id = ?", *filter.ThirdPartyID)
	}
	if filter.ConceptID != nil {
		query = query.Where("concept_id = ?", *filter.ConceptID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Search != "" {
		query = query.Where("reference ILIKE ? OR third_party_name ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormObligationRepository implements the interface
var _ ledger.ObligationRepository = (*GormObligationRepository)(nil)
