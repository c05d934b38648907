package persistence

import (
	"context"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/party"
	"gorm.io/gorm"
)

// GormTransactionManager runs units of work inside one database transaction.
// Every repository handed to fn is bound to the same *gorm.DB transaction,
// so an error from fn rolls all of its writes back together.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Do implements TransactionManager
func (m *GormTransactionManager) Do(ctx context.Context, fn func(tx ledger.LedgerTx) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTx{tx: tx})
	})
}

// gormLedgerTx exposes the repositories bound to one open transaction
type gormLedgerTx struct {
	tx *gorm.DB
}

func (t *gormLedgerTx) Concepts() ledger.ChargeConceptRepository {
	return NewGormChargeConceptRepository(t.tx)
}

func (t *gormLedgerTx) Obligations() ledger.ObligationRepository {
	return NewGormObligationRepository(t.tx)
}

func (t *gormLedgerTx) Payments() ledger.PaymentRepository {
	return NewGormPaymentRepository(t.tx)
}

func (t *gormLedgerTx) Invoices() ledger.InvoiceRepository {
	return NewGormInvoiceRepository(t.tx)
}

func (t *gormLedgerTx) CashCloses() ledger.CashCloseRepository {
	return NewGormCashCloseRepository(t.tx)
}

func (t *gormLedgerTx) Sequences() ledger.SequenceAllocator {
	return NewGormSequenceAllocator(t.tx)
}

func (t *gormLedgerTx) ThirdParties() party.ThirdPartyRepository {
	return NewGormThirdPartyRepository(t.tx)
}

// Interface guards
var (
	_ ledger.TransactionManager = (*GormTransactionManager)(nil)
	_ ledger.LedgerTx           = (*gormLedgerTx)(nil)
)
