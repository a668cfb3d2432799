package reports

import (
	"context"
	"time"
)

// Repository defines report data access.
type Repository interface {
	// Movements sums RECEIPT and ISSUE quantities in [from, to).
	Movements(ctx context.Context, from, to time.Time) (in, out int64, err error)

	// MonthlySales aggregates RECEIPT and ISSUE entries in [from, to) per
	// product, ordered by issued quantity descending.
	MonthlySales(ctx context.Context, from, to time.Time) ([]MonthlySalesItem, error)

	StockSummary(ctx context.Context) (StockSummary, error)

	EntryCount(ctx context.Context) (int64, error)
}
