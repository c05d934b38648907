package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LateFeeType describes how a late fee accrues once the grace period ends
type LateFeeType string

const (
	LateFeeNone    LateFeeType = "NONE"
	LateFeeFixed   LateFeeType = "FIXED"   // flat amount per overdue obligation
	LateFeePercent LateFeeType = "PERCENT" // percentage of the outstanding balance
)

// IsValid checks if the late fee type is valid
func (t LateFeeType) IsValid() bool {
	switch t {
	case LateFeeNone, LateFeeFixed, LateFeePercent:
		return true
	}
	return false
}

// LateFeePolicy describes the late-fee rule attached to a charge concept.
// Stored as JSONB inside the concept row.
type LateFeePolicy struct {
	Type      LateFeeType     `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	GraceDays int             `json:"grace_days"`
}

// Value implements driver.Valuer for JSONB storage
func (p LateFeePolicy) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage
func (p *LateFeePolicy) Scan(value interface{}) error {
	if value == nil {
		*p = NoLateFee()
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LateFeePolicy: unsupported type")
	}

	if len(bytes) == 0 {
		*p = NoLateFee()
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// NoLateFee returns the empty policy
func NoLateFee() LateFeePolicy {
	return LateFeePolicy{Type: LateFeeNone, Amount: decimal.Zero}
}

// ChargeConcept is a reusable charge template (e.g. "Monthly Tuition") from
// which obligations are instantiated. Names are unique per institution,
// counting deactivated concepts.
type ChargeConcept struct {
	shared.TenantAggregateRoot
	Name          string          `json:"name" gorm:"not null;size:150"`
	Description   string          `json:"description"`
	DefaultAmount decimal.Decimal `json:"default_amount" gorm:"type:decimal(18,2);not null"`
	Recurring     bool            `json:"recurring" gorm:"not null;default:false"`
	LateFee       LateFeePolicy   `json:"late_fee" gorm:"type:jsonb"`
	DueDate       *time.Time      `json:"due_date"`
	Active        bool            `json:"active" gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ChargeConcept) TableName() string {
	return "charge_concepts"
}

// NewChargeConcept creates a new charge concept
func NewChargeConcept(tenantID uuid.UUID, name string, defaultAmount decimal.Decimal) (*ChargeConcept, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Concept name cannot be empty")
	}
	if len(name) > 150 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Concept name cannot exceed 150 characters")
	}
	if defaultAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Default amount cannot be negative")
	}

	c := &ChargeConcept{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		DefaultAmount:       defaultAmount,
		LateFee:             NoLateFee(),
		Active:              true,
	}

	c.AddDomainEvent(NewChargeConceptCreatedEvent(c))

	return c, nil
}

// SetLateFee attaches a late-fee policy
func (c *ChargeConcept) SetLateFee(policy LateFeePolicy) error {
	if !policy.Type.IsValid() {
		return shared.NewDomainErrorf("INVALID_INPUT", "Late fee type %q is not valid", policy.Type)
	}
	if policy.Type != LateFeeNone && policy.Amount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Late fee amount cannot be negative")
	}
	if policy.GraceDays < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Grace days cannot be negative")
	}
	c.LateFee = policy
	c.markUpdated()
	return nil
}

// UpdateDefaults updates the template values used for new obligations.
// Existing obligations are never touched.
func (c *ChargeConcept) UpdateDefaults(defaultAmount decimal.Decimal, recurring bool, dueDate *time.Time) error {
	if defaultAmount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Default amount cannot be negative")
	}
	c.DefaultAmount = defaultAmount
	c.Recurring = recurring
	c.DueDate = dueDate
	c.markUpdated()
	return nil
}

// Deactivate soft-deletes the concept. Concepts referenced by obligations
// are never hard-deleted.
func (c *ChargeConcept) Deactivate() error {
	if !c.Active {
		return shared.NewDomainError("INVALID_STATE", "Concept is already inactive")
	}
	c.Active = false
	c.markUpdated()
	return nil
}

// Reactivate restores a deactivated concept
func (c *ChargeConcept) Reactivate() error {
	if c.Active {
		return shared.NewDomainError("INVALID_STATE", "Concept is already active")
	}
	c.Active = true
	c.markUpdated()
	return nil
}

func (c *ChargeConcept) markUpdated() {
	c.Touch()
	c.IncrementVersion()
}
