package ledger

import (
	"context"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the persistence layer, shared by
// the service tests. Save copies the aggregate in, reads copy it back out,
// so mutations only stick when the service saves them.
type memStore struct {
	concepts    map[uuid.UUID]ledger.ChargeConcept
	obligations map[uuid.UUID]ledger.FinancialObligation
	payments    map[uuid.UUID]ledger.FinancialPayment
	invoices    map[uuid.UUID]ledger.FinancialInvoice
	closes      map[string]ledger.CashRegisterClose // keyed by close date
	parties     map[uuid.UUID]party.ThirdParty
	counters    map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		concepts:    make(map[uuid.UUID]ledger.ChargeConcept),
		obligations: make(map[uuid.UUID]ledger.FinancialObligation),
		payments:    make(map[uuid.UUID]ledger.FinancialPayment),
		invoices:    make(map[uuid.UUID]ledger.FinancialInvoice),
		closes:      make(map[string]ledger.CashRegisterClose),
		parties:     make(map[uuid.UUID]party.ThirdParty),
		counters:    make(map[string]int64),
	}
}

// memTxManager satisfies ledger.TransactionManager without real transaction
// semantics; rollback behavior is covered by the persistence-layer tests.
type memTxManager struct{ store *memStore }

func (m *memTxManager) Do(ctx context.Context, fn func(tx ledger.LedgerTx) error) error {
	return fn(&memTx{store: m.store})
}

type memTx struct{ store *memStore }

func (t *memTx) Concepts() ledger.ChargeConceptRepository  { return &memConceptRepo{t.store} }
func (t *memTx) Obligations() ledger.ObligationRepository  { return &memObligationRepo{t.store} }
func (t *memTx) Payments() ledger.PaymentRepository        { return &memPaymentRepo{t.store} }
func (t *memTx) Invoices() ledger.InvoiceRepository        { return &memInvoiceRepo{t.store} }
func (t *memTx) CashCloses() ledger.CashCloseRepository    { return &memCashCloseRepo{t.store} }
func (t *memTx) Sequences() ledger.SequenceAllocator       { return &memSequences{t.store} }
func (t *memTx) ThirdParties() party.ThirdPartyRepository  { return &memThirdPartyRepo{t.store} }

type memSequences struct{ store *memStore }

func (s *memSequences) Allocate(_ context.Context, tenantID uuid.UUID, series ledger.Series) (string, error) {
	key := tenantID.String() + ":" + string(series)
	s.store.counters[key]++
	return ledger.FormatDocumentNumber(series.DefaultPrefix(), s.store.counters[key], ledger.DefaultPadding), nil
}

type memConceptRepo struct{ store *memStore }

func (r *memConceptRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.ChargeConcept, error) {
	c, ok := r.store.concepts[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memConceptRepo) FindByName(_ context.Context, tenantID uuid.UUID, name string) (*ledger.ChargeConcept, error) {
	for _, c := range r.store.concepts {
		if c.TenantID == tenantID && c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memConceptRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ ledger.ConceptFilter) ([]ledger.ChargeConcept, error) {
	var out []ledger.ChargeConcept
	for _, c := range r.store.concepts {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memConceptRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ConceptFilter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memConceptRepo) CountObligationsForConcept(_ context.Context, tenantID, conceptID uuid.UUID) (int64, error) {
	var n int64
	for _, o := range r.store.obligations {
		if o.TenantID == tenantID && o.ConceptID == conceptID {
			n++
		}
	}
	return n, nil
}

func (r *memConceptRepo) Save(_ context.Context, c *ledger.ChargeConcept) error {
	r.store.concepts[c.ID] = *c
	return nil
}

func (r *memConceptRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(r.store.concepts, id)
	return nil
}

type memObligationRepo struct{ store *memStore }

func (r *memObligationRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.FinancialObligation, error) {
	o, ok := r.store.obligations[id]
	if !ok || o.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (r *memObligationRepo) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FinancialObligation, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *memObligationRepo) FindByReference(_ context.Context, tenantID uuid.UUID, reference string) (*ledger.FinancialObligation, error) {
	for _, o := range r.store.obligations {
		if o.TenantID == tenantID && o.Reference == reference {
			found := o
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memObligationRepo) FindActiveByConceptAndParty(_ context.Context, tenantID, conceptID, thirdPartyID uuid.UUID) (*ledger.FinancialObligation, error) {
	for _, o := range r.store.obligations {
		if o.TenantID == tenantID && o.ConceptID == conceptID && o.ThirdPartyID == thirdPartyID && o.Status.IsActive() {
			found := o
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memObligationRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) ([]ledger.FinancialObligation, error) {
	var out []ledger.FinancialObligation
	for _, o := range r.store.obligations {
		if o.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.ThirdPartyID != nil && o.ThirdPartyID != *filter.ThirdPartyID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *memObligationRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memObligationRepo) CountByThirdParty(_ context.Context, tenantID, thirdPartyID uuid.UUID) (int64, error) {
	var n int64
	for _, o := range r.store.obligations {
		if o.TenantID == tenantID && o.ThirdPartyID == thirdPartyID {
			n++
		}
	}
	return n, nil
}

func (r *memObligationRepo) SumBalanceForTenant(_ context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range r.store.obligations {
		if o.TenantID == tenantID && o.Status.IsActive() {
			sum = sum.Add(o.Balance)
		}
	}
	return sum, nil
}

func (r *memObligationRepo) TenantsWithOpenObligations(context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, o := range r.store.obligations {
		if o.Status.IsActive() && !seen[o.TenantID] {
			seen[o.TenantID] = true
			ids = append(ids, o.TenantID)
		}
	}
	return ids, nil
}

func (r *memObligationRepo) FindPastDueOpen(_ context.Context, tenantID uuid.UUID, asOf time.Time) ([]ledger.FinancialObligation, error) {
	var out []ledger.FinancialObligation
	for _, o := range r.store.obligations {
		if o.TenantID != tenantID || o.DueDate == nil || !o.DueDate.Before(asOf) {
			continue
		}
		if o.Status == ledger.ObligationStatusPending || o.Status == ledger.ObligationStatusPartial {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memObligationRepo) Save(_ context.Context, o *ledger.FinancialObligation) error {
	r.store.obligations[o.ID] = *o
	return nil
}

func (r *memObligationRepo) SaveGuarded(_ context.Context, o *ledger.FinancialObligation) error {
	current, ok := r.store.obligations[o.ID]
	if ok && current.Version >= o.Version {
		return shared.ErrConcurrencyConflict
	}
	r.store.obligations[o.ID] = *o
	return nil
}

type memPaymentRepo struct{ store *memStore }

func (r *memPaymentRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.FinancialPayment, error) {
	p, ok := r.store.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memPaymentRepo) FindByReceiptNumber(_ context.Context, tenantID uuid.UUID, receipt string) (*ledger.FinancialPayment, error) {
	for _, p := range r.store.payments {
		if p.TenantID == tenantID && p.ReceiptNumber == receipt {
			found := p
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPaymentRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) ([]ledger.FinancialPayment, error) {
	var out []ledger.FinancialPayment
	for _, p := range r.store.payments {
		if p.TenantID != tenantID {
			continue
		}
		if !filter.IncludeVoided && p.Voided {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memPaymentRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.PaymentFilter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memPaymentRepo) CountByThirdParty(_ context.Context, tenantID, thirdPartyID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.store.payments {
		if p.TenantID == tenantID && p.ThirdPartyID == thirdPartyID {
			n++
		}
	}
	return n, nil
}

func (r *memPaymentRepo) SumBucketsInWindow(_ context.Context, tenantID uuid.UUID, from, to time.Time) (ledger.PaymentBuckets, int, error) {
	var buckets ledger.PaymentBuckets
	count := 0
	for _, p := range r.store.payments {
		if p.TenantID != tenantID || !p.CountsTowardTotals() {
			continue
		}
		if p.PaymentDate.Before(from) || p.PaymentDate.After(to) {
			continue
		}
		buckets.Add(p.Method.Bucket(), p.Amount)
		count++
	}
	return buckets, count, nil
}

func (r *memPaymentRepo) SumCollectedInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	buckets, _, err := r.SumBucketsInWindow(ctx, tenantID, from, to)
	return buckets.GrandTotal(), err
}

func (r *memPaymentRepo) Save(_ context.Context, p *ledger.FinancialPayment) error {
	r.store.payments[p.ID] = *p
	return nil
}

type memInvoiceRepo struct{ store *memStore }

func (r *memInvoiceRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*ledger.FinancialInvoice, error) {
	inv, ok := r.store.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &inv, nil
}

func (r *memInvoiceRepo) FindByInvoiceNumber(_ context.Context, tenantID uuid.UUID, number string) (*ledger.FinancialInvoice, error) {
	for _, inv := range r.store.invoices {
		if inv.TenantID == tenantID && inv.InvoiceNumber == number {
			found := inv
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInvoiceRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ ledger.InvoiceFilter) ([]ledger.FinancialInvoice, error) {
	var out []ledger.FinancialInvoice
	for _, inv := range r.store.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memInvoiceRepo) Save(_ context.Context, inv *ledger.FinancialInvoice) error {
	r.store.invoices[inv.ID] = *inv
	return nil
}

type memCashCloseRepo struct{ store *memStore }

func closeKey(tenantID uuid.UUID, date time.Time) string {
	return tenantID.String() + ":" + date.Format("2006-01-02")
}

func (r *memCashCloseRepo) FindByDate(_ context.Context, tenantID uuid.UUID, date time.Time) (*ledger.CashRegisterClose, error) {
	c, ok := r.store.closes[closeKey(tenantID, date)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memCashCloseRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _, _ *time.Time) ([]ledger.CashRegisterClose, error) {
	var out []ledger.CashRegisterClose
	for _, c := range r.store.closes {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCashCloseRepo) Upsert(_ context.Context, c *ledger.CashRegisterClose) error {
	r.store.closes[closeKey(c.TenantID, c.CloseDate)] = *c
	return nil
}

type memThirdPartyRepo struct{ store *memStore }

func (r *memThirdPartyRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*party.ThirdParty, error) {
	tp, ok := r.store.parties[id]
	if !ok || tp.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &tp, nil
}

func (r *memThirdPartyRepo) FindByDirectoryRef(_ context.Context, tenantID uuid.UUID, ref string) (*party.ThirdParty, error) {
	for _, tp := range r.store.parties {
		if tp.TenantID == tenantID && tp.DirectoryRef != nil && *tp.DirectoryRef == ref {
			found := tp
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memThirdPartyRepo) FindByDocument(_ context.Context, tenantID uuid.UUID, documentID string) (*party.ThirdParty, error) {
	for _, tp := range r.store.parties {
		if tp.TenantID == tenantID && tp.DocumentID == documentID {
			found := tp
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memThirdPartyRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, _ party.ThirdPartyFilter) ([]party.ThirdParty, error) {
	var out []party.ThirdParty
	for _, tp := range r.store.parties {
		if tp.TenantID == tenantID {
			out = append(out, tp)
		}
	}
	return out, nil
}

func (r *memThirdPartyRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter party.ThirdPartyFilter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *memThirdPartyRepo) Save(_ context.Context, tp *party.ThirdParty) error {
	r.store.parties[tp.ID] = *tp
	return nil
}

func (r *memThirdPartyRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(r.store.parties, id)
	return nil
}

// memDirectory is a canned people-directory bridge
type memDirectory struct {
	people map[string]party.Person   // externalID -> person
	grades map[string][]string       // grade -> externalIDs
	groups map[string][]string       // group -> externalIDs
}

func (d *memDirectory) ResolvePerson(_ context.Context, _ string, externalID string) (*party.Person, error) {
	p, ok := d.people[externalID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (d *memDirectory) FindByGrade(_ context.Context, _ string, grade string) ([]string, error) {
	return d.grades[grade], nil
}

func (d *memDirectory) FindByGroup(_ context.Context, _ string, group string) ([]string, error) {
	return d.groups[group], nil
}

// memIdempotency is a map-backed idempotency store
type memIdempotency struct{ keys map[string]bool }

func (s *memIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *memIdempotency) Close() error { return nil }
