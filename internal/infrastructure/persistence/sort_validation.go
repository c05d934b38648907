package persistence

import (
	"fmt"
	"strings"

	"github.com/edufin/backend/internal/domain/shared"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC, defaulting
// to DESC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the sort field against a whitelist and falls back
// to defaultField when the input is empty or not allowed. Sort fields come
// from query strings, so they must never reach SQL unvalidated.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// orderClause builds a safe ORDER BY fragment from a caller-supplied filter
func orderClause(f shared.Filter, allowedFields map[string]bool, defaultField string) string {
	field := ValidateSortField(f.OrderBy, allowedFields, defaultField)
	return fmt.Sprintf("%s %s", field, ValidateSortOrder(f.OrderDir))
}

var conceptSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"default_amount": true,
}

var obligationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"reference":  true,
	"due_date":   true,
	"balance":    true,
	"status":     true,
}

var paymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"receipt_number": true,
	"payment_date":   true,
	"amount":         true,
}

var invoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"invoice_number": true,
	"issued_at":      true,
	"total":          true,
}

var thirdPartySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"document_id": true,
}
