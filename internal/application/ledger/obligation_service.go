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

// ObligationService manages the financial obligation ledger. Every mutation
// runs inside one database transaction: document number allocation, the row
// write and any balance recomputation commit or roll back together.
type ObligationService struct {
	txm         ledger.TransactionManager
	obligations ledger.ObligationRepository
	logger      *zap.Logger
}

// NewObligationService creates a new ObligationService
func NewObligationService(txm ledger.TransactionManager, obligations ledger.ObligationRepository, logger *zap.Logger) *ObligationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObligationService{txm: txm, obligations: obligations, logger: logger}
}

// CreateObligationRequest carries the data for a new obligation
type CreateObligationRequest struct {
	ThirdPartyID   uuid.UUID        `json:"third_party_id" binding:"required"`
	ConceptID      uuid.UUID        `json:"concept_id" binding:"required"`
	Amount         *decimal.Decimal `json:"amount"`   // overrides the concept default
	Discount       decimal.Decimal  `json:"discount"` // initial discount, optional
	DueDate        *time.Time       `json:"due_date"` // overrides the concept due date
	Notes          string           `json:"notes"`
	AllowDuplicate bool             `json:"allow_duplicate"` // bypass the open-obligation check
}

// Create instantiates an obligation from a concept for one third party.
// The concept must be active; amount and due date fall back to the concept
// defaults when not overridden. The acting operator is recorded on the row.
func (s *ObligationService) Create(ctx context.Context, tenantID, actor uuid.UUID, req CreateObligationRequest) (*ObligationResponse, error) {
	var created *ledger.FinancialObligation

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		concept, err := tx.Concepts().FindByIDForTenant(ctx, tenantID, req.ConceptID)
		if err != nil {
			return err
		}
		if !concept.Active {
			return shared.NewDomainErrorf("INVALID_STATE", "Concept %q is deactivated", concept.Name)
		}

		tp, err := tx.ThirdParties().FindByIDForTenant(ctx, tenantID, req.ThirdPartyID)
		if err != nil {
			return err
		}
		if !tp.Active {
			return shared.NewDomainErrorf("INVALID_STATE", "Third party %q is deactivated", tp.Name)
		}

		if !req.AllowDuplicate {
			if _, err := tx.Obligations().FindActiveByConceptAndParty(ctx, tenantID, concept.ID, tp.ID); err == nil {
				return shared.NewDomainErrorf("ALREADY_EXISTS",
					"%s already has an open obligation for %q", tp.Name, concept.Name)
			} else if !shared.IsNotFound(err) {
				return err
			}
		}

		amount := concept.DefaultAmount
		if req.Amount != nil {
			amount = *req.Amount
		}
		dueDate := concept.DueDate
		if req.DueDate != nil {
			dueDate = req.DueDate
		}

		reference, err := tx.Sequences().Allocate(ctx, tenantID, ledger.SeriesObligation)
		if err != nil {
			return err
		}

		o, err := ledger.NewFinancialObligation(
			tenantID, reference, tp.ID, tp.Name, concept.ID, concept.Name,
			amount, req.Discount, dueDate,
		)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			o.AppendNote(req.Notes)
		}
		o.SetCreatedBy(actor)

		if err := tx.Obligations().Save(ctx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("obligation created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("obligation_id", created.ID.String()),
		zap.String("reference", created.Reference),
		zap.String("balance", created.Balance.String()),
	)

	return toObligationResponse(created), nil
}

// ApplyDiscountRequest carries a discount authorization
type ApplyDiscountRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason" binding:"required"`
	ApprovedBy uuid.UUID       `json:"approved_by" binding:"required"`
}

// ApplyDiscount sets the obligation's discount under a row lock, recomputing
// total, balance and status in the same transaction.
func (s *ObligationService) ApplyDiscount(ctx context.Context, tenantID, id uuid.UUID, req ApplyDiscountRequest) (*ObligationResponse, error) {
	var updated *ledger.FinancialObligation

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		o, err := tx.Obligations().FindByIDForTenantLocked(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := o.ApplyDiscount(req.Amount, req.Reason, req.ApprovedBy); err != nil {
			return err
		}
		if err := tx.Obligations().SaveGuarded(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("discount applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("obligation_id", id.String()),
		zap.String("discount", req.Amount.String()),
		zap.String("new_status", updated.Status.String()),
	)

	return toObligationResponse(updated), nil
}

// CancelObligationRequest carries the cancellation reason
type CancelObligationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Cancel terminally cancels an unpaid obligation
func (s *ObligationService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelObligationRequest) (*ObligationResponse, error) {
	var updated *ledger.FinancialObligation

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		o, err := tx.Obligations().FindByIDForTenantLocked(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := o.Cancel(req.Reason); err != nil {
			return err
		}
		if err := tx.Obligations().SaveGuarded(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("obligation cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("obligation_id", id.String()),
	)

	return toObligationResponse(updated), nil
}

// Get returns an obligation by id
func (s *ObligationService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ObligationResponse, error) {
	o, err := s.obligations.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toObligationResponse(o), nil
}

// GetByReference returns an obligation by its document number
func (s *ObligationService) GetByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*ObligationResponse, error) {
	o, err := s.obligations.FindByReference(ctx, tenantID, reference)
	if err != nil {
		return nil, err
	}
	return toObligationResponse(o), nil
}

// List returns obligations matching the filter
func (s *ObligationService) List(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) ([]ObligationResponse, int64, error) {
	obligations, err := s.obligations.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.obligations.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ObligationResponse, len(obligations))
	for i := range obligations {
		responses[i] = *toObligationResponse(&obligations[i])
	}
	return responses, total, nil
}

// OutstandingSummary is the tenant-wide receivables snapshot
type OutstandingSummary struct {
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// Outstanding returns the sum of open balances across the institution
func (s *ObligationService) Outstanding(ctx context.Context, tenantID uuid.UUID) (*OutstandingSummary, error) {
	balance, err := s.obligations.SumBalanceForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &OutstandingSummary{OutstandingBalance: balance}, nil
}

// MarkOverdueSweep flips past-due PENDING obligations to OVERDUE and moves
// the restore point of past-due PARTIAL ones. Meant to run daily.
func (s *ObligationService) MarkOverdueSweep(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error) {
	flipped := 0

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		candidates, err := tx.Obligations().FindPastDueOpen(ctx, tenantID, now)
		if err != nil {
			return err
		}
		for i := range candidates {
			o := &candidates[i]
			if !o.IsOverdue(now) || o.Status == ledger.ObligationStatusOverdue {
				continue
			}
			if err := o.MarkOverdue(); err != nil {
				continue
			}
			if err := tx.Obligations().SaveGuarded(ctx, o); err != nil {
				return err
			}
			flipped++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if flipped > 0 {
		s.logger.Info("overdue sweep finished",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("flipped", flipped),
		)
	}
	return flipped, nil
}
