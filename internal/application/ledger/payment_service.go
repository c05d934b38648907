package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService manages the append-only payment ledger. Registration and
// void both touch two rows (the payment and its linked obligation) and run
// inside one transaction so the ledger can never show a payment without the
// matching balance movement.
type PaymentService struct {
	txm         ledger.TransactionManager
	payments    ledger.PaymentRepository
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txm ledger.TransactionManager,
	payments ledger.PaymentRepository,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		txm:         txm,
		payments:    payments,
		idempotency: idempotency,
		idemCfg:     idemCfg,
		logger:      logger,
	}
}

// RegisterPaymentRequest carries the data for a new payment
type RegisterPaymentRequest struct {
	ThirdPartyID   uuid.UUID       `json:"third_party_id" binding:"required"`
	ObligationID   *uuid.UUID      `json:"obligation_id"` // nil for a standalone receipt
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method" binding:"required"`
	ExternalRef    string          `json:"external_ref"`
	PaymentDate    *time.Time      `json:"payment_date"`
	Notes          string          `json:"notes"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// Register records a payment. When the payment targets an obligation the
// obligation row is locked, the paid amount and balance are recomputed and
// the status is re-derived, all before the same transaction commits the
// payment row. A duplicate idempotency key is rejected without writing.
func (s *PaymentService) Register(ctx context.Context, tenantID, actor uuid.UUID, req RegisterPaymentRequest) (*PaymentResponse, error) {
	if req.IdempotencyKey != "" && s.idempotency != nil && s.idemCfg.Enabled {
		key := fmt.Sprintf("payment:%s:%s", tenantID, req.IdempotencyKey)
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idemCfg.TTL)
		if err != nil {
			// The store being down must not block cashiers; log and continue
			s.logger.Warn("idempotency store unavailable", zap.Error(err))
		} else if !fresh {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Duplicate payment submission")
		}
	}

	var created *ledger.FinancialPayment

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		tp, err := tx.ThirdParties().FindByIDForTenant(ctx, tenantID, req.ThirdPartyID)
		if err != nil {
			return err
		}

		var obligation *ledger.FinancialObligation
		if req.ObligationID != nil {
			obligation, err = tx.Obligations().FindByIDForTenantLocked(ctx, tenantID, *req.ObligationID)
			if err != nil {
				return err
			}
			if obligation.ThirdPartyID != tp.ID {
				return shared.NewDomainError("INVALID_INPUT", "Obligation belongs to a different third party")
			}
			if !obligation.Status.CanAcceptPayment() {
				return shared.NewDomainErrorf("INVALID_STATE",
					"Obligation %s in %s status cannot accept payments", obligation.Reference, obligation.Status)
			}
		}

		receipt, err := tx.Sequences().Allocate(ctx, tenantID, ledger.SeriesReceipt)
		if err != nil {
			return err
		}

		paymentDate := time.Now()
		if req.PaymentDate != nil {
			paymentDate = *req.PaymentDate
		}

		p, err := ledger.NewFinancialPayment(
			tenantID, receipt, tp.ID, req.ObligationID,
			req.Amount, ledger.PaymentMethod(req.Method), actor, paymentDate,
		)
		if err != nil {
			return err
		}
		p.ExternalRef = req.ExternalRef
		p.Notes = req.Notes

		if err := tx.Payments().Save(ctx, p); err != nil {
			return err
		}

		if obligation != nil {
			if err := obligation.ApplyPaymentDelta(p.Amount); err != nil {
				return err
			}
			if err := tx.Obligations().SaveGuarded(ctx, obligation); err != nil {
				return err
			}
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", created.ID.String()),
		zap.String("receipt", created.ReceiptNumber),
		zap.String("amount", created.Amount.String()),
		zap.String("method", created.Method.String()),
	)

	return toPaymentResponse(created), nil
}

// VoidPaymentRequest carries the void reason
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Void flags the payment as voided and reverses its effect on the linked
// obligation in the same transaction. A fully voided obligation returns to
// the status it held before any payment, PENDING or OVERDUE. The payment
// row itself stays in the ledger for audit.
func (s *PaymentService) Void(ctx context.Context, tenantID, paymentID, actor uuid.UUID, req VoidPaymentRequest) (*PaymentResponse, error) {
	var voided *ledger.FinancialPayment

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		p, err := tx.Payments().FindByIDForTenant(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if err := p.Void(actor, req.Reason); err != nil {
			return err
		}

		if p.ObligationID != nil {
			o, err := tx.Obligations().FindByIDForTenantLocked(ctx, tenantID, *p.ObligationID)
			if err != nil {
				return err
			}
			if err := o.ApplyPaymentDelta(p.Amount.Neg()); err != nil {
				return err
			}
			if err := tx.Obligations().SaveGuarded(ctx, o); err != nil {
				return err
			}
		}

		if err := tx.Payments().Save(ctx, p); err != nil {
			return err
		}
		voided = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment voided",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.String("receipt", voided.ReceiptNumber),
	)

	return toPaymentResponse(voided), nil
}

// Get returns a payment by id
func (s *PaymentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.payments.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(p), nil
}

// GetByReceipt returns a payment by its receipt number
func (s *PaymentService) GetByReceipt(ctx context.Context, tenantID uuid.UUID, receipt string) (*PaymentResponse, error) {
	p, err := s.payments.FindByReceiptNumber(ctx, tenantID, receipt)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(p), nil
}

// List returns payments matching the filter
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]PaymentResponse, int64, error) {
	payments, err := s.payments.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.payments.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}
	return responses, total, nil
}

// CollectionStats is the aggregate collected in a window
type CollectionStats struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Collected decimal.Decimal `json:"collected"`
}

// CollectedInWindow sums non-voided payments inside [from, to]
func (s *PaymentService) CollectedInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*CollectionStats, error) {
	collected, err := s.payments.SumCollectedInWindow(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return &CollectionStats{From: from, To: to, Collected: collected}, nil
}
