package party

import (
	"context"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ThirdPartyService provides application-level operations over the payer directory
type ThirdPartyService struct {
	parties     party.ThirdPartyRepository
	obligations ledger.ObligationRepository
	payments    ledger.PaymentRepository
	directory   party.PersonDirectory
	logger      *zap.Logger
}

// NewThirdPartyService creates a new ThirdPartyService
func NewThirdPartyService(
	parties party.ThirdPartyRepository,
	obligations ledger.ObligationRepository,
	payments ledger.PaymentRepository,
	directory party.PersonDirectory,
	logger *zap.Logger,
) *ThirdPartyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThirdPartyService{
		parties:     parties,
		obligations: obligations,
		payments:    payments,
		directory:   directory,
		logger:      logger,
	}
}

// ThirdPartyResponse represents a third party in API responses
type ThirdPartyResponse struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Type         string     `json:"type"`
	DirectoryRef *string    `json:"directory_ref,omitempty"`
	Name         string     `json:"name"`
	DocumentType string     `json:"document_type,omitempty"`
	DocumentID   string     `json:"document_id,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toThirdPartyResponse(tp *party.ThirdParty) *ThirdPartyResponse {
	return &ThirdPartyResponse{
		ID:           tp.ID,
		TenantID:     tp.TenantID,
		Type:         tp.Type.String(),
		DirectoryRef: tp.DirectoryRef,
		Name:         tp.Name,
		DocumentType: string(tp.DocumentType),
		DocumentID:   tp.DocumentID,
		Email:        tp.Email,
		Phone:        tp.Phone,
		Address:      tp.Address,
		Active:       tp.Active,
		CreatedAt:    tp.CreatedAt,
		UpdatedAt:    tp.UpdatedAt,
	}
}

// RegisterThirdPartyRequest carries the data for explicit registration
type RegisterThirdPartyRequest struct {
	Type         string `json:"type" binding:"required"`
	Name         string `json:"name" binding:"required"`
	DocumentType string `json:"document_type"`
	DocumentID   string `json:"document_id"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// Register explicitly creates a third party (as opposed to lazy
// materialization from the directory on first charge).
func (s *ThirdPartyService) Register(ctx context.Context, tenantID uuid.UUID, req RegisterThirdPartyRequest) (*ThirdPartyResponse, error) {
	tp, err := party.NewThirdParty(tenantID, party.ThirdPartyType(req.Type), req.Name)
	if err != nil {
		return nil, err
	}
	if req.DocumentID != "" {
		if err := tp.SetDocument(party.DocumentType(req.DocumentType), req.DocumentID); err != nil {
			return nil, err
		}
	}
	tp.UpdateContact(req.Email, req.Phone, req.Address)

	if err := s.parties.Save(ctx, tp); err != nil {
		return nil, err
	}

	s.logger.Info("third party registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("third_party_id", tp.ID.String()),
		zap.String("type", req.Type),
	)

	return toThirdPartyResponse(tp), nil
}

// ResolveOrMaterialize returns the third party behind an external directory
// id, creating it from the directory bridge on first sight.
func (s *ThirdPartyService) ResolveOrMaterialize(ctx context.Context, tenantID uuid.UUID, externalID string, partyType party.ThirdPartyType) (*party.ThirdParty, error) {
	tp, err := s.parties.FindByDirectoryRef(ctx, tenantID, externalID)
	if err == nil {
		return tp, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	person, err := s.directory.ResolvePerson(ctx, tenantID.String(), externalID)
	if err != nil {
		return nil, err
	}

	tp, err = party.NewThirdPartyFromDirectory(tenantID, partyType, externalID, *person)
	if err != nil {
		return nil, err
	}
	if err := s.parties.Save(ctx, tp); err != nil {
		return nil, err
	}

	s.logger.Info("third party materialized from directory",
		zap.String("tenant_id", tenantID.String()),
		zap.String("external_id", externalID),
		zap.String("third_party_id", tp.ID.String()),
	)

	return tp, nil
}

// Get returns a third party by id
func (s *ThirdPartyService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ThirdPartyResponse, error) {
	tp, err := s.parties.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toThirdPartyResponse(tp), nil
}

// List returns third parties matching the filter
func (s *ThirdPartyService) List(ctx context.Context, tenantID uuid.UUID, filter party.ThirdPartyFilter) ([]ThirdPartyResponse, int64, error) {
	parties, err := s.parties.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.parties.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ThirdPartyResponse, len(parties))
	for i := range parties {
		responses[i] = *toThirdPartyResponse(&parties[i])
	}
	return responses, total, nil
}

// UpdateContactRequest carries mutable contact fields
type UpdateContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateContact updates name and contact data
func (s *ThirdPartyService) UpdateContact(ctx context.Context, tenantID, id uuid.UUID, req UpdateContactRequest) (*ThirdPartyResponse, error) {
	tp, err := s.parties.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		if err := tp.Rename(req.Name); err != nil {
			return nil, err
		}
	}
	tp.UpdateContact(req.Email, req.Phone, req.Address)

	if err := s.parties.Save(ctx, tp); err != nil {
		return nil, err
	}
	return toThirdPartyResponse(tp), nil
}

// RemoveResult reports what Remove actually did
type RemoveResult struct {
	Mode party.DeletionMode `json:"mode"`
}

// Remove hard-deletes the third party when it owns no ledger history and
// soft-deactivates it otherwise. The decision lives in party.DecideDeletion.
func (s *ThirdPartyService) Remove(ctx context.Context, tenantID, id uuid.UUID) (*RemoveResult, error) {
	tp, err := s.parties.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	obligationCount, err := s.obligations.CountByThirdParty(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	paymentCount, err := s.payments.CountByThirdParty(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	mode := party.DecideDeletion(obligationCount > 0, paymentCount > 0)
	switch mode {
	case party.DeletionModeHard:
		if err := s.parties.Delete(ctx, tenantID, id); err != nil {
			return nil, err
		}
	case party.DeletionModeDeactivate:
		if err := tp.Deactivate(); err != nil {
			return nil, err
		}
		if err := s.parties.Save(ctx, tp); err != nil {
			return nil, err
		}
	}

	s.logger.Info("third party removed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("third_party_id", id.String()),
		zap.String("mode", string(mode)),
	)

	return &RemoveResult{Mode: mode}, nil
}
