package ledger

import (
	"context"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CashCloseService reconciles one register day against the payment ledger
type CashCloseService struct {
	txm      ledger.TransactionManager
	closes   ledger.CashCloseRepository
	location *time.Location
	logger   *zap.Logger
}

// NewCashCloseService creates a new CashCloseService. location is the
// institution's local timezone used to bound the register day.
func NewCashCloseService(txm ledger.TransactionManager, closes ledger.CashCloseRepository, location *time.Location, logger *zap.Logger) *CashCloseService {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashCloseService{txm: txm, closes: closes, location: location, logger: logger}
}

// CloseRegisterRequest carries the data for closing one register day
type CloseRegisterRequest struct {
	Date              time.Time        `json:"date" binding:"required"`
	PhysicalCashCount *decimal.Decimal `json:"physical_cash_count"`
	Notes             string           `json:"notes"`
}

// Close computes the day's bucket totals from non-voided payments and
// upserts the single close row for (institution, date). Re-closing the same
// day recomputes from the current ledger and overwrites, so a close run
// after a late void reflects the corrected totals.
func (s *CashCloseService) Close(ctx context.Context, tenantID, actor uuid.UUID, req CloseRegisterRequest) (*CashCloseResponse, error) {
	var closed *ledger.CashRegisterClose

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		from, to := ledger.DayWindow(req.Date, s.location)

		buckets, count, err := tx.Payments().SumBucketsInWindow(ctx, tenantID, from, to)
		if err != nil {
			return err
		}

		c, err := ledger.NewCashRegisterClose(
			tenantID, from, buckets, count,
			req.PhysicalCashCount, req.Notes, actor,
		)
		if err != nil {
			return err
		}

		if err := tx.CashCloses().Upsert(ctx, c); err != nil {
			return err
		}
		closed = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("tenant_id", tenantID.String()),
		zap.String("close_date", closed.CloseDate.Format("2006-01-02")),
		zap.String("grand_total", closed.GrandTotal.String()),
		zap.Int("payment_count", closed.PaymentCount),
	}
	if closed.Variance != nil {
		fields = append(fields, zap.String("variance", closed.Variance.String()))
	}
	s.logger.Info("cash register closed", fields...)

	return toCashCloseResponse(closed), nil
}

// Get returns the close row for one date, if the day was closed
func (s *CashCloseService) Get(ctx context.Context, tenantID uuid.UUID, date time.Time) (*CashCloseResponse, error) {
	from, _ := ledger.DayWindow(date, s.location)
	c, err := s.closes.FindByDate(ctx, tenantID, from)
	if err != nil {
		return nil, err
	}
	return toCashCloseResponse(c), nil
}

// List returns close rows inside an optional date range
func (s *CashCloseService) List(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]CashCloseResponse, error) {
	closes, err := s.closes.FindAllForTenant(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	responses := make([]CashCloseResponse, len(closes))
	for i := range closes {
		responses[i] = *toCashCloseResponse(&closes[i])
	}
	return responses, nil
}
