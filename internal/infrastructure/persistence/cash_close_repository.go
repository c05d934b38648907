package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCashCloseRepository implements CashCloseRepository using GORM
type GormCashCloseRepository struct {
	db *gorm.DB
}

// NewGormCashCloseRepository creates a new GormCashCloseRepository
func NewGormCashCloseRepository(db *gorm.DB) *GormCashCloseRepository {
	return &GormCashCloseRepository{db: db}
}

// FindByDate finds the close row for a given calendar date. Callers pass the
// midnight-local timestamp produced by DayWindow.
func (r *GormCashCloseRepository) FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.CashRegisterClose, error) {
	var close ledger.CashRegisterClose
	if err := r.db.WithContext(ctx).
		First(&close, "tenant_id = ? AND close_date = ?", tenantID, date).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &close, nil
}

// FindAllForTenant lists close rows, optionally bounded by date
func (r *GormCashCloseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]ledger.CashRegisterClose, error) {
	var closes []ledger.CashRegisterClose
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)

	if from != nil {
		query = query.Where("close_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("close_date <= ?", *to)
	}

	if err := query.Order("close_date DESC").Find(&closes).Error; err != nil {
		return nil, err
	}
	return closes, nil
}

// Upsert writes the single row for (tenant, date). Re-closing a day
// overwrites the previous close rather than stacking a second row.
func (r *GormCashCloseRepository) Upsert(ctx context.Context, c *ledger.CashRegisterClose) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "close_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cash_total", "transfer_total", "card_total", "other_total",
				"grand_total", "physical_cash_count", "variance",
				"payment_count", "notes", "closed_by", "updated_at", "version",
			}),
		}).
		Create(c).Error; err != nil {
		return err
	}

	// On conflict the original row keeps its id; sync the aggregate with
	// what the database actually holds.
	stored, err := r.FindByDate(ctx, c.TenantID, c.CloseDate)
	if err != nil {
		return err
	}
	c.ID = stored.ID
	c.CreatedAt = stored.CreatedAt
	return nil
}

// Ensure GormCashCloseRepository implements the interface
var _ ledger.CashCloseRepository = (*GormCashCloseRepository)(nil)
