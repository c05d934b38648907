package party

import (
	"context"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ThirdPartyFilter defines filtering options for third party queries
type ThirdPartyFilter struct {
	shared.Filter
	Type       ThirdPartyType
	ActiveOnly bool
	DocumentID string
}

// ThirdPartyRepository defines the persistence contract for third parties
type ThirdPartyRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ThirdParty, error)
	FindByDirectoryRef(ctx context.Context, tenantID uuid.UUID, ref string) (*ThirdParty, error)
	FindByDocument(ctx context.Context, tenantID uuid.UUID, documentID string) (*ThirdParty, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ThirdPartyFilter) ([]ThirdParty, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ThirdPartyFilter) (int64, error)
	Save(ctx context.Context, tp *ThirdParty) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
