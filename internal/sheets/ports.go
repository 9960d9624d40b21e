// Package sheets defines the outbound port for the spreadsheet export.
package sheets

import (
	"context"

	"nozze/internal/core"
)

// Exporter mirrors expenses into an external spreadsheet. Rows are keyed by
// expense id, so upserting the same id twice replaces the earlier row.
type Exporter interface {
	UpsertExpense(ctx context.Context, e core.Expense) error
	RemoveExpense(ctx context.Context, id int64) error
}
