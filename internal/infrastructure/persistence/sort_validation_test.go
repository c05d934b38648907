package persistence

import (
	"testing"

	"github.com/edufin/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder("asc"))
	assert.Equal(t, "ASC", ValidateSortOrder(" ASC "))
	assert.Equal(t, "DESC", ValidateSortOrder("desc"))
	assert.Equal(t, "DESC", ValidateSortOrder(""))
	assert.Equal(t, "DESC", ValidateSortOrder("sideways"))
}

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{"name": true, "created_at": true}

	assert.Equal(t, "name", ValidateSortField("name", allowed, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", allowed, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("balance; DROP TABLE x", allowed, "created_at"))
}

func TestOrderClause(t *testing.T) {
	f := shared.Filter{OrderBy: "due_date", OrderDir: "asc"}
	assert.Equal(t, "due_date ASC", orderClause(f, obligationSortFields, "created_at"))

	// hostile input collapses to the safe default
	f = shared.Filter{OrderBy: "pg_sleep(10)", OrderDir: "asc"}
	assert.Equal(t, "created_at ASC", orderClause(f, obligationSortFields, "created_at"))
}
