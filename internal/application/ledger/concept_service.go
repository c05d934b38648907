package ledger

import (
	"context"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConceptService manages the charge concept catalog
type ConceptService struct {
	concepts ledger.ChargeConceptRepository
	logger   *zap.Logger
}

// NewConceptService creates a new ConceptService
func NewConceptService(concepts ledger.ChargeConceptRepository, logger *zap.Logger) *ConceptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConceptService{concepts: concepts, logger: logger}
}

// CreateConceptRequest carries the data for a new charge concept
type CreateConceptRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	Recurring     bool            `json:"recurring"`
	DueDate       *time.Time      `json:"due_date"`
	LateFeeType   string          `json:"late_fee_type"`
	LateFeeValue  decimal.Decimal `json:"late_fee_value"`
	GraceDays     int             `json:"grace_days"`
}

// Create adds a concept to the catalog. Names are unique per institution,
// counting deactivated concepts.
func (s *ConceptService) Create(ctx context.Context, tenantID uuid.UUID, req CreateConceptRequest) (*ConceptResponse, error) {
	existing, err := s.concepts.FindByName(ctx, tenantID, req.Name)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Concept %q already exists", req.Name)
	}

	c, err := ledger.NewChargeConcept(tenantID, req.Name, req.DefaultAmount)
	if err != nil {
		return nil, err
	}
	c.Description = req.Description
	if err := c.UpdateDefaults(req.DefaultAmount, req.Recurring, req.DueDate); err != nil {
		return nil, err
	}
	if req.LateFeeType != "" && req.LateFeeType != string(ledger.LateFeeNone) {
		policy := ledger.LateFeePolicy{
			Type:      ledger.LateFeeType(req.LateFeeType),
			Amount:    req.LateFeeValue,
			GraceDays: req.GraceDays,
		}
		if err := c.SetLateFee(policy); err != nil {
			return nil, err
		}
	}

	if err := s.concepts.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("charge concept created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("concept_id", c.ID.String()),
		zap.String("name", c.Name),
	)

	return toConceptResponse(c), nil
}

// UpdateConceptRequest carries mutable template fields
type UpdateConceptRequest struct {
	Description   *string          `json:"description"`
	DefaultAmount *decimal.Decimal `json:"default_amount"`
	Recurring     *bool            `json:"recurring"`
	DueDate       *time.Time       `json:"due_date"`
	LateFeeType   *string          `json:"late_fee_type"`
	LateFeeValue  *decimal.Decimal `json:"late_fee_value"`
	GraceDays     *int             `json:"grace_days"`
}

// Update changes template defaults. Obligations already instantiated from
// the concept are never touched.
func (s *ConceptService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateConceptRequest) (*ConceptResponse, error) {
	c, err := s.concepts.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		c.Description = *req.Description
	}

	amount := c.DefaultAmount
	if req.DefaultAmount != nil {
		amount = *req.DefaultAmount
	}
	recurring := c.Recurring
	if req.Recurring != nil {
		recurring = *req.Recurring
	}
	dueDate := c.DueDate
	if req.DueDate != nil {
		dueDate = req.DueDate
	}
	if err := c.UpdateDefaults(amount, recurring, dueDate); err != nil {
		return nil, err
	}

	if req.LateFeeType != nil {
		policy := c.LateFee
		policy.Type = ledger.LateFeeType(*req.LateFeeType)
		if req.LateFeeValue != nil {
			policy.Amount = *req.LateFeeValue
		}
		if req.GraceDays != nil {
			policy.GraceDays = *req.GraceDays
		}
		if err := c.SetLateFee(policy); err != nil {
			return nil, err
		}
	}

	if err := s.concepts.Save(ctx, c); err != nil {
		return nil, err
	}
	return toConceptResponse(c), nil
}

// RemoveConceptResult reports whether the concept was deleted or deactivated
type RemoveConceptResult struct {
	Deleted bool `json:"deleted"`
}

// Remove hard-deletes a concept no obligation references and deactivates it
// otherwise, mirroring the third-party deletion duality.
func (s *ConceptService) Remove(ctx context.Context, tenantID, id uuid.UUID) (*RemoveConceptResult, error) {
	c, err := s.concepts.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	refs, err := s.concepts.CountObligationsForConcept(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if refs == 0 {
		if err := s.concepts.Delete(ctx, tenantID, id); err != nil {
			return nil, err
		}
		return &RemoveConceptResult{Deleted: true}, nil
	}

	if err := c.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.concepts.Save(ctx, c); err != nil {
		return nil, err
	}
	return &RemoveConceptResult{Deleted: false}, nil
}

// Reactivate restores a deactivated concept
func (s *ConceptService) Reactivate(ctx context.Context, tenantID, id uuid.UUID) (*ConceptResponse, error) {
	c, err := s.concepts.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.concepts.Save(ctx, c); err != nil {
		return nil, err
	}
	return toConceptResponse(c), nil
}

// Get returns a concept by id
func (s *ConceptService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ConceptResponse, error) {
	c, err := s.concepts.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toConceptResponse(c), nil
}

// List returns concepts matching the filter
func (s *ConceptService) List(ctx context.Context, tenantID uuid.UUID, filter ledger.ConceptFilter) ([]ConceptResponse, int64, error) {
	concepts, err := s.concepts.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.concepts.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ConceptResponse, len(concepts))
	for i := range concepts {
		responses[i] = *toConceptResponse(&concepts[i])
	}
	return responses, total, nil
}
