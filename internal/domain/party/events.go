package party

import (
	"github.com/edufin/backend/internal/domain/shared"
)

// Event types for the party context
const (
	EventTypeThirdPartyCreated     = "party.third_party.created"
	EventTypeThirdPartyDeactivated = "party.third_party.deactivated"
)

// ThirdPartyCreatedEvent is raised when a third party is registered or materialized
type ThirdPartyCreatedEvent struct {
	shared.BaseDomainEvent
	Name         string         `json:"name"`
	Type         ThirdPartyType `json:"third_party_type"`
	DirectoryRef *string        `json:"directory_ref,omitempty"`
}

// NewThirdPartyCreatedEvent creates a ThirdPartyCreatedEvent
func NewThirdPartyCreatedEvent(tp *ThirdParty) *ThirdPartyCreatedEvent {
	return &ThirdPartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeThirdPartyCreated, "ThirdParty", tp.ID, tp.TenantID),
		Name:            tp.Name,
		Type:            tp.Type,
		DirectoryRef:    tp.DirectoryRef,
	}
}

// ThirdPartyDeactivatedEvent is raised when a third party is soft-deleted
type ThirdPartyDeactivatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewThirdPartyDeactivatedEvent creates a ThirdPartyDeactivatedEvent
func NewThirdPartyDeactivatedEvent(tp *ThirdParty) *ThirdPartyDeactivatedEvent {
	return &ThirdPartyDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeThirdPartyDeactivated, "ThirdParty", tp.ID, tp.TenantID),
		Name:            tp.Name,
	}
}
