package ledger

import (
	"context"
	"time"

	"github.com/edufin/backend/internal/domain/ledger"
	"github.com/edufin/backend/internal/domain/party"
	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BulkObligationService generates obligations for whole populations at once
// (a grade, a group, or an explicit list of payers). The run is best-effort
// per candidate: one failing candidate never rolls back the others.
type BulkObligationService struct {
	txm       ledger.TransactionManager
	directory party.PersonDirectory
	logger    *zap.Logger
}

// NewBulkObligationService creates a new BulkObligationService
func NewBulkObligationService(txm ledger.TransactionManager, directory party.PersonDirectory, logger *zap.Logger) *BulkObligationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkObligationService{txm: txm, directory: directory, logger: logger}
}

// BulkCreateRequest selects a target population and the charge to apply.
// Exactly one of ThirdPartyIDs, Grade or Group should be set; when several
// are set the resolved candidates are merged and de-duplicated.
type BulkCreateRequest struct {
	ConceptID     uuid.UUID        `json:"concept_id" binding:"required"`
	ThirdPartyIDs []uuid.UUID      `json:"third_party_ids"`
	Grade         string           `json:"grade"`
	Group         string           `json:"group"`
	Amount        *decimal.Decimal `json:"amount"`
	Discount      decimal.Decimal  `json:"discount"`
	DueDate       *time.Time       `json:"due_date"`
	Notes         string           `json:"notes"`
}

// BulkCandidateError describes one candidate the run could not charge
type BulkCandidateError struct {
	ThirdPartyID *uuid.UUID `json:"third_party_id,omitempty"`
	ExternalRef  string     `json:"external_ref,omitempty"`
	Message      string     `json:"message"`
}

// BulkCreateResult summarizes a bulk generation run
type BulkCreateResult struct {
	Created int                  `json:"created"`
	Skipped int                  `json:"skipped"`
	Errors  []BulkCandidateError `json:"errors"`
}

// bulkCandidate is one resolved target of the run
type bulkCandidate struct {
	thirdPartyID uuid.UUID
	externalRef  string
}

// Create runs the bulk generation. Candidates already holding an open
// obligation for the concept are counted as skipped; directory people never
// charged before are materialized as third parties on the fly. Each
// candidate commits in its own transaction.
func (s *BulkObligationService) Create(ctx context.Context, tenantID, actor uuid.UUID, req BulkCreateRequest) (*BulkCreateResult, error) {
	result := &BulkCreateResult{Errors: []BulkCandidateError{}}

	candidates, resolveErrs, err := s.resolveCandidates(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, resolveErrs...)

	if len(candidates) == 0 && len(result.Errors) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Bulk run resolved no candidates")
	}

	for _, cand := range candidates {
		created, err := s.createForCandidate(ctx, tenantID, actor, req, cand)
		switch {
		case err == nil && created:
			result.Created++
		case err == nil:
			result.Skipped++
		default:
			result.Errors = append(result.Errors, candidateError(cand, err))
		}
	}

	s.logger.Info("bulk obligation run finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("concept_id", req.ConceptID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func candidateError(cand bulkCandidate, err error) BulkCandidateError {
	e := BulkCandidateError{ExternalRef: cand.externalRef, Message: err.Error()}
	if cand.thirdPartyID != uuid.Nil {
		id := cand.thirdPartyID
		e.ThirdPartyID = &id
	}
	return e
}

// resolveCandidates merges explicit ids with directory lookups, materializing
// third parties for directory people seen for the first time.
func (s *BulkObligationService) resolveCandidates(ctx context.Context, tenantID uuid.UUID, req BulkCreateRequest) ([]bulkCandidate, []BulkCandidateError, error) {
	var candidates []bulkCandidate
	var errs []BulkCandidateError
	seen := make(map[uuid.UUID]bool)

	for _, id := range req.ThirdPartyIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, bulkCandidate{thirdPartyID: id})
	}

	var externalIDs []string
	if req.Grade != "" {
		ids, err := s.directory.FindByGrade(ctx, tenantID.String(), req.Grade)
		if err != nil {
			return nil, nil, err
		}
		externalIDs = append(externalIDs, ids...)
	}
	if req.Group != "" {
		ids, err := s.directory.FindByGroup(ctx, tenantID.String(), req.Group)
		if err != nil {
			return nil, nil, err
		}
		externalIDs = append(externalIDs, ids...)
	}

	seenExternal := make(map[string]bool)
	for _, ext := range externalIDs {
		if ext == "" || seenExternal[ext] {
			continue
		}
		seenExternal[ext] = true

		tpID, err := s.materialize(ctx, tenantID, ext)
		if err != nil {
			errs = append(errs, BulkCandidateError{ExternalRef: ext, Message: err.Error()})
			continue
		}
		if seen[tpID] {
			continue
		}
		seen[tpID] = true
		candidates = append(candidates, bulkCandidate{thirdPartyID: tpID, externalRef: ext})
	}

	return candidates, errs, nil
}

// materialize returns the third party behind a directory id, creating it on
// first sight.
func (s *BulkObligationService) materialize(ctx context.Context, tenantID uuid.UUID, externalID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		tp, err := tx.ThirdParties().FindByDirectoryRef(ctx, tenantID, externalID)
		if err == nil {
			id = tp.ID
			return nil
		}
		if !shared.IsNotFound(err) {
			return err
		}

		person, err := s.directory.ResolvePerson(ctx, tenantID.String(), externalID)
		if err != nil {
			return err
		}
		tp, err = party.NewThirdPartyFromDirectory(tenantID, party.ThirdPartyTypeLearner, externalID, *person)
		if err != nil {
			return err
		}
		if err := tx.ThirdParties().Save(ctx, tp); err != nil {
			return err
		}
		id = tp.ID
		return nil
	})
	return id, err
}

// createForCandidate charges one candidate in its own transaction. Returns
// (false, nil) when the candidate already holds an open obligation.
func (s *BulkObligationService) createForCandidate(ctx context.Context, tenantID, actor uuid.UUID, req BulkCreateRequest, cand bulkCandidate) (bool, error) {
	created := false

	err := s.txm.Do(ctx, func(tx ledger.LedgerTx) error {
		concept, err := tx.Concepts().FindByIDForTenant(ctx, tenantID, req.ConceptID)
		if err != nil {
			return err
		}
		if !concept.Active {
			return shared.NewDomainErrorf("INVALID_STATE", "Concept %q is deactivated", concept.Name)
		}

		tp, err := tx.ThirdParties().FindByIDForTenant(ctx, tenantID, cand.thirdPartyID)
		if err != nil {
			return err
		}
		if !tp.Active {
			return shared.NewDomainErrorf("INVALID_STATE", "Third party %q is deactivated", tp.Name)
		}

		// An open obligation for the same concept means this candidate was
		// already charged; count it as skipped, not failed.
		if _, err := tx.Obligations().FindActiveByConceptAndParty(ctx, tenantID, concept.ID, tp.ID); err == nil {
			return nil
		} else if !shared.IsNotFound(err) {
			return err
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
		created = true
		return nil
	})
	if shared.IsAlreadyExists(err) {
		// Lost the insert race to a concurrent run; the unique index on
		// open obligations caught it, same outcome as the duplicate check.
		return false, nil
	}
	return created, err
}
