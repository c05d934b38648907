package directory

import (
	"context"

	"github.com/edufin/backend/internal/domain/party"
)

// Disabled is the PersonDirectory used when no directory service is
// configured. Person resolution and roster queries report the service
// as unavailable; operations that never touch the directory, like
// explicit third-party registration, keep working.
type Disabled struct{}

// NewDisabled creates a disabled directory
func NewDisabled() *Disabled {
	return &Disabled{}
}

// ResolvePerson always reports the directory as unavailable
func (d *Disabled) ResolvePerson(context.Context, string, string) (*party.Person, error) {
	return nil, ErrDirectoryUnavailable
}

// FindByGrade always reports the directory as unavailable
func (d *Disabled) FindByGrade(context.Context, string, string) ([]string, error) {
	return nil, ErrDirectoryUnavailable
}

// FindByGroup always reports the directory as unavailable
func (d *Disabled) FindByGroup(context.Context, string, string) ([]string, error) {
	return nil, ErrDirectoryUnavailable
}

var _ party.PersonDirectory = (*Disabled)(nil)
