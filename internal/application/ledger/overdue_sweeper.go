package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"go.uber.org/zap"
)

// OverdueSweeperConfig holds configuration for the background overdue sweep
type OverdueSweeperConfig struct {
	Interval time.Duration
}

// DefaultOverdueSweeperConfig returns default configuration
func DefaultOverdueSweeperConfig() OverdueSweeperConfig {
	return OverdueSweeperConfig{
		Interval: 1 * time.Hour,
	}
}

// OverdueSweeper periodically flips past-due obligations to OVERDUE across
// all institutions. The sweep is also reachable on demand through the HTTP
// API; this worker only keeps statuses fresh between requests.
type OverdueSweeper struct {
	obligations ledger.ObligationRepository
	service     *ObligationService
	config      OverdueSweeperConfig
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOverdueSweeper creates a new overdue sweeper
func NewOverdueSweeper(
	obligations ledger.ObligationRepository,
	service *ObligationService,
	config OverdueSweeperConfig,
	logger *zap.Logger,
) *OverdueSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultOverdueSweeperConfig().Interval
	}
	return &OverdueSweeper{
		obligations: obligations,
		service:     service,
		config:      config,
		logger:      logger,
	}
}

// Start starts the background sweep loop
func (s *OverdueSweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.sweepLoop(ctx)

	s.logger.Info("overdue sweeper started",
		zap.Duration("interval", s.config.Interval),
	)
}

// Stop gracefully stops the sweeper
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("overdue sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OverdueSweeper) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAll(ctx)
		}
	}
}

// sweepAll runs one sweep pass over every institution with open obligations
func (s *OverdueSweeper) sweepAll(ctx context.Context) {
	tenantIDs, err := s.obligations.TenantsWithOpenObligations(ctx)
	if err != nil {
		s.logger.Error("overdue sweep: listing institutions failed", zap.Error(err))
		return
	}

	now := time.Now()
	total := 0
	for _, tenantID := range tenantIDs {
		flipped, err := s.service.MarkOverdueSweep(ctx, tenantID, now)
		if err != nil {
			s.logger.Error("overdue sweep failed for institution",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		total += flipped
	}

	if total > 0 {
		s.logger.Info("overdue sweep completed",
			zap.Int("institutions", len(tenantIDs)),
			zap.Int("flipped", total),
		)
	}
}
