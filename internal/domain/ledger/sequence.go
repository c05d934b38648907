package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Series names a per-institution monotonic counter used to produce
// human-readable document numbers.
type Series string

const (
	SeriesObligation Series = "OBLIGATION"
	SeriesReceipt    Series = "RECEIPT"
	SeriesInvoice    Series = "INVOICE"
)

// IsValid checks if the series is known
func (s Series) IsValid() bool {
	switch s {
	case SeriesObligation, SeriesReceipt, SeriesInvoice:
		return true
	}
	return false
}

// DefaultPrefix returns the document prefix used when an institution has not
// configured its own.
func (s Series) DefaultPrefix() string {
	switch s {
	case SeriesObligation:
		return "OB"
	case SeriesReceipt:
		return "RC"
	case SeriesInvoice:
		return "FV"
	}
	return "DOC"
}

// DefaultPadding is the zero-padding width for formatted document numbers
const DefaultPadding = 6

// FormatDocumentNumber renders "PREFIX-000123" style numbers
func FormatDocumentNumber(prefix string, number int64, padding int) string {
	if padding <= 0 {
		padding = DefaultPadding
	}
	return fmt.Sprintf("%s-%0*d", prefix, padding, number)
}

// SequenceAllocator issues strictly increasing document numbers per
// (institution, series). Allocation is atomic with respect to concurrent
// callers for the same pair: a number, once returned, is never returned
// again even if the consuming create fails afterwards. Gaps are fine,
// collisions are not.
type SequenceAllocator interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, series Series) (string, error)
}
