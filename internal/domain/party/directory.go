package party

import "context"

// Person is the projection of an external people-directory record (student
// roster, staff registry) used to materialize a ThirdParty on first charge.
type Person struct {
	Name         string
	DocumentType DocumentType
	DocumentID   string
	Email        string
	Phone        string
}

// PersonDirectory is the bridge to the external people directory. The
// ledger only calls it when charging a person it has not seen before.
type PersonDirectory interface {
	// ResolvePerson returns the person behind an external directory id.
	// Implementations return shared.ErrNotFound when the id is unknown.
	ResolvePerson(ctx context.Context, tenantID string, externalID string) (*Person, error)

	// FindByGrade returns the external ids of all people enrolled in a grade
	FindByGrade(ctx context.Context, tenantID string, grade string) ([]string, error)

	// FindByGroup returns the external ids of all people in a group
	FindByGroup(ctx context.Context, tenantID string, group string) ([]string, error)
}
