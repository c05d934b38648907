package party

import (
	"strings"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ThirdPartyType classifies a payer entity independent of its role in the
// rest of the platform.
type ThirdPartyType string

const (
	ThirdPartyTypeLearner  ThirdPartyType = "LEARNER"
	ThirdPartyTypeStaff    ThirdPartyType = "STAFF"
	ThirdPartyTypeGuardian ThirdPartyType = "GUARDIAN"
	ThirdPartyTypeOther    ThirdPartyType = "OTHER"
)

// IsValid checks if the type is a valid ThirdPartyType
func (t ThirdPartyType) IsValid() bool {
	switch t {
	case ThirdPartyTypeLearner, ThirdPartyTypeStaff, ThirdPartyTypeGuardian, ThirdPartyTypeOther:
		return true
	}
	return false
}

// String returns the string representation of ThirdPartyType
func (t ThirdPartyType) String() string {
	return string(t)
}

// DocumentType identifies the kind of identity document on file
type DocumentType string

const (
	DocumentTypeNationalID DocumentType = "NATIONAL_ID"
	DocumentTypeCivilID    DocumentType = "CIVIL_ID" // Minor's civil registry document
	DocumentTypePassport   DocumentType = "PASSPORT"
	DocumentTypeForeignID  DocumentType = "FOREIGN_ID"
	DocumentTypeTaxID      DocumentType = "TAX_ID"
)

// IsValid checks if the document type is valid
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeNationalID, DocumentTypeCivilID, DocumentTypePassport,
		DocumentTypeForeignID, DocumentTypeTaxID:
		return true
	}
	return false
}

// ThirdParty represents a payer (learner, guardian, staff member or other
// external party) in the financial directory. It is the aggregate root for
// payer-related operations. A third party may carry a back-reference to the
// external people directory record it was materialized from.
type ThirdParty struct {
	shared.TenantAggregateRoot
	Type ThirdPartyType `json:"type" gorm:"not null;size:20;index"`
	// DirectoryRef is the external directory record id, when materialized from the roster
	DirectoryRef *string      `json:"directory_ref" gorm:"size:100;index"`
	Name         string       `json:"name" gorm:"not null;size:200"`
	DocumentType DocumentType `json:"document_type" gorm:"size:20"`
	DocumentID   string       `json:"document_id" gorm:"size:50;index"`
	Email        string       `json:"email" gorm:"size:150"`
	Phone        string       `json:"phone" gorm:"size:30"`
	Address      string       `json:"address" gorm:"size:250"`
	Active       bool         `json:"active" gorm:"not null;default:true;index"`
	Notes        string       `json:"notes"`
}

// TableName returns the table name for GORM
func (ThirdParty) TableName() string {
	return "third_parties"
}

// NewThirdParty creates a new third party with required fields
func NewThirdParty(tenantID uuid.UUID, partyType ThirdPartyType, name string) (*ThirdParty, error) {
	if !partyType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Third party type %q is not valid", partyType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Third party name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Third party name cannot exceed 200 characters")
	}

	tp := &ThirdParty{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                partyType,
		Name:                name,
		Active:              true,
	}

	tp.AddDomainEvent(NewThirdPartyCreatedEvent(tp))

	return tp, nil
}

// NewThirdPartyFromDirectory materializes a third party from an external
// directory person record, keeping the back-reference for reconciliation.
func NewThirdPartyFromDirectory(tenantID uuid.UUID, partyType ThirdPartyType, ref string, person Person) (*ThirdParty, error) {
	tp, err := NewThirdParty(tenantID, partyType, person.Name)
	if err != nil {
		return nil, err
	}
	tp.DirectoryRef = &ref
	tp.DocumentType = person.DocumentType
	tp.DocumentID = person.DocumentID
	tp.Email = person.Email
	tp.Phone = person.Phone
	return tp, nil
}

// SetDocument sets the identity document fields
func (tp *ThirdParty) SetDocument(docType DocumentType, docID string) error {
	if docType != "" && !docType.IsValid() {
		return shared.NewDomainErrorf("INVALID_INPUT", "Document type %q is not valid", docType)
	}
	tp.DocumentType = docType
	tp.DocumentID = strings.TrimSpace(docID)
	tp.markUpdated()
	return nil
}

// UpdateContact updates contact information
func (tp *ThirdParty) UpdateContact(email, phone, address string) {
	tp.Email = strings.TrimSpace(email)
	tp.Phone = strings.TrimSpace(phone)
	tp.Address = strings.TrimSpace(address)
	tp.markUpdated()
}

// Rename changes the display name
func (tp *ThirdParty) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Third party name cannot be empty")
	}
	tp.Name = name
	tp.markUpdated()
	return nil
}

// Deactivate soft-deletes the third party. Used when the party owns
// obligations or payments and must stay visible for audit.
func (tp *ThirdParty) Deactivate() error {
	if !tp.Active {
		return shared.NewDomainError("INVALID_STATE", "Third party is already inactive")
	}
	tp.Active = false
	tp.markUpdated()
	tp.AddDomainEvent(NewThirdPartyDeactivatedEvent(tp))
	return nil
}

// Reactivate restores a deactivated third party
func (tp *ThirdParty) Reactivate() error {
	if tp.Active {
		return shared.NewDomainError("INVALID_STATE", "Third party is already active")
	}
	tp.Active = true
	tp.markUpdated()
	return nil
}

func (tp *ThirdParty) markUpdated() {
	tp.Touch()
	tp.IncrementVersion()
}

// DeletionMode says what removing a third party actually does
type DeletionMode string

const (
	DeletionModeHard       DeletionMode = "HARD"       // no financial history, row removed
	DeletionModeDeactivate DeletionMode = "DEACTIVATE" // referenced by history, soft-deactivated
)

// DecideDeletion is the single decision point for the hard-vs-soft delete
// duality: anything referenced by ledger history is never truly deleted.
func DecideDeletion(ownsObligations, ownsPayments bool) DeletionMode {
	if ownsObligations || ownsPayments {
		return DeletionModeDeactivate
	}
	return DeletionModeHard
}
