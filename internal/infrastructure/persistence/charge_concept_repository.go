package persistence

import (
	"context"
	"errors"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChargeConceptRepository implements ChargeConceptRepository using GORM
type GormChargeConceptRepository struct {
	db *gorm.DB
}

// NewGormChargeConceptRepository creates a new GormChargeConceptRepository
func NewGormChargeConceptRepository(db *gorm.DB) *GormChargeConceptRepository {
	return &GormChargeConceptRepository{db: db}
}

// FindByIDForTenant finds a charge concept by ID for a specific institution
func (r *GormChargeConceptRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.ChargeConcept, error) {
	var concept ledger.ChargeConcept
	if err := r.db.WithContext(ctx).
		First(&concept, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &concept, nil
}

// FindByName finds a concept by name, matching active and inactive rows
func (r *GormChargeConceptRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*ledger.ChargeConcept, error) {
	var concept ledger.ChargeConcept
	if err := r.db.WithContext(ctx).
		First(&concept, "tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &concept, nil
}

// FindAllForTenant finds all charge concepts for an institution with filtering
func (r *GormChargeConceptRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ConceptFilter) ([]ledger.ChargeConcept, error) {
	var concepts []ledger.ChargeConcept
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	query = query.Order(orderClause(filter.Filter, conceptSortFields, "created_at")).
		Limit(filter.Limit()).
		Offset(filter.Offset())

	if err := query.Find(&concepts).Error; err != nil {
		return nil, err
	}
	return concepts, nil
}

// CountForTenant counts charge concepts for an institution with filtering
func (r *GormChargeConceptRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ConceptFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.ChargeConcept{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountObligationsForConcept counts obligations referencing the concept.
// Used by the deletion guard: referenced concepts deactivate instead.
func (r *GormChargeConceptRepository) CountObligationsForConcept(ctx context.Context, tenantID, conceptID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.FinancialObligation{}).
		Where("tenant_id = ? AND concept_id = ?", tenantID, conceptID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a charge concept
func (r *GormChargeConceptRepository) Save(ctx context.Context, c *ledger.ChargeConcept) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete hard-deletes a charge concept
func (r *GormChargeConceptRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&ledger.ChargeConcept{}, "id = ? AND tenant_id = ?", id, tenantID).Error
}

func (r *GormChargeConceptRepository) applyFilter(query *gorm.DB, filter ledger.ConceptFilter) *gorm.DB {
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.Recurring != nil {
		query = query.Where("recurring = ?", *filter.Recurring)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormChargeConceptRepository implements the interface
var _ ledger.ChargeConceptRepository = (*GormChargeConceptRepository)(nil)
