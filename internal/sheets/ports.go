package sheets

import (
	"context"

	"planner/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter writes a full snapshot of one month. Exports replace
	// whatever was previously written for that month.
	LedgerExporter interface {
		ExportLedger(ctx context.Context, l core.Ledger, categories []core.Category) error
	}
)

// TabName is the sheet tab that holds a month's snapshot.
func TabName(month core.MonthKey) string {
	return string(month)
}
