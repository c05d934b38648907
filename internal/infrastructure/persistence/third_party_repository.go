package persistence

import (
	"context"
	"errors"

	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormThirdPartyRepository implements ThirdPartyRepository using GORM
type GormThirdPartyRepository struct {
	db *gorm.DB
}

// NewGormThirdPartyRepository creates a new GormThirdPartyRepository
func NewGormThirdPartyRepository(db *gorm.DB) *GormThirdPartyRepository {
	return &GormThirdPartyRepository{db: db}
}

// FindByIDForTenant finds a third party by ID for a specific institution
func (r *GormThirdPartyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*party.ThirdParty, error) {
	var tp party.ThirdParty
	if err := r.db.WithContext(ctx).
		First(&tp, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tp, nil
}

// FindByDirectoryRef finds the third party materialized from a directory record
func (r *GormThirdPartyRepository) FindByDirectoryRef(ctx context.Context, tenantID uuid.UUID, ref string) (*party.ThirdParty, error) {
	var tp party.ThirdParty
	if err := r.db.WithContext(ctx).
		First(&tp, "tenant_id = ? AND directory_ref = ?", tenantID, ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tp, nil
}

// FindByDocument finds a third party by its identity document number
func (r *GormThirdPartyRepository) FindByDocument(ctx context.Context, tenantID uuid.UUID, documentID string) (*party.ThirdParty, error) {
	var tp party.ThirdParty
	if err := r.db.WithContext(ctx).
		First(&tp, "tenant_id = ? AND document_id = ?", tenantID, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tp, nil
}

// FindAllForTenant finds all third parties for an institution with filtering
func (r *GormThirdPartyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter party.ThirdPartyFilter) ([]party.ThirdParty, error) {
	var parties []party.ThirdParty
	query := r.applyFilter(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID), filter)

	query = query.Order(orderClause(filter.Filter, thirdPartySortFields, "name")).
		Limit(filter.Limit()).
		Offset(filter.Offset())

	if err := query.Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// CountForTenant counts third parties for an institution with filtering
func (r *GormThirdPartyRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter party.ThirdPartyFilter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&party.ThirdParty{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a third party
func (r *GormThirdPartyRepository) Save(ctx context.Context, tp *party.ThirdParty) error {
	return r.db.WithContext(ctx).Save(tp).Error
}

// Delete hard-deletes a third party. The application layer only calls this
// for parties with no ledger history; everyone else deactivates.
func (r *GormThirdPartyRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&party.ThirdParty{}, "id = ? AND tenant_id = ?", id, tenantID).Error
}

func (r *GormThirdPartyRepository) applyFilter(query *gorm.DB, filter party.ThirdPartyFilter) *gorm.DB {
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.DocumentID != "" {
		query = query.Where("document_id = ?", filter.DocumentID)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR document_id ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormThirdPartyRepository implements the interface
var _ party.ThirdPartyRepository = (*GormThirdPartyRepository)(nil)
