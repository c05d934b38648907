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

// DocumentSequence is the counter row behind one (institution, series) pair.
// NextNumber holds the last issued number; the row is written under a
// row-level lock so numbers never collide.
type DocumentSequence struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_tenant_series"`
	Series     ledger.Series `gorm:"not null;size:30;uniqueIndex:idx_sequence_tenant_series"`
	Prefix     string        `gorm:"not null;size:10"`
	NextNumber int64         `gorm:"not null"`
	Padding    int           `gorm:"not null"`
	UpdatedAt  time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequence) TableName() string {
	return "document_sequences"
}

// GormSequenceAllocator issues document numbers from the counter table.
// Allocate must run inside a transaction: the SELECT FOR UPDATE serializes
// concurrent allocations for the same pair, and a number handed out is
// burned even when the consuming create rolls back in a later attempt.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Allocate returns the next formatted document number for the series
func (a *GormSequenceAllocator) Allocate(ctx context.Context, tenantID uuid.UUID, series ledger.Series) (string, error) {
	if tenantID == uuid.Nil {
		return "", shared.NewDomainError("INVALID_INPUT", "Tenant ID cannot be empty")
	}
	if !series.IsValid() {
		return "", shared.NewDomainErrorf("INVALID_INPUT", "Unknown document series %q", series)
	}

	var seq DocumentSequence
	err := a.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "tenant_id = ? AND series = ?", tenantID, series).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = DocumentSequence{
			ID:         uuid.New(),
			TenantID:   tenantID,
			Series:     series,
			Prefix:     series.DefaultPrefix(),
			NextNumber: 1,
			Padding:    ledger.DefaultPadding,
			UpdatedAt:  time.Now(),
		}
		// DO NOTHING keeps the enclosing transaction usable when a
		// concurrent allocator seeds the same pair first.
		res := a.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "series"}},
				DoNothing: true,
			}).
			Create(&seq)
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return ledger.FormatDocumentNumber(seq.Prefix, seq.NextNumber, seq.Padding), nil
		}
		// Lost the seed race; take the winner's row under lock and
		// fall through to the normal increment.
		if err := a.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&seq, "tenant_id = ? AND series = ?", tenantID, series).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	number := seq.NextNumber + 1
	if err := a.db.WithContext(ctx).
		Model(&seq).
		Updates(map[string]any{"next_number": number, "updated_at": time.Now()}).Error; err != nil {
		return "", err
	}

	return ledger.FormatDocumentNumber(seq.Prefix, number, seq.Padding), nil
}

// Ensure GormSequenceAllocator implements the interface
var _ ledger.SequenceAllocator = (*GormSequenceAllocator)(nil)
