package opname

import (
	"context"
	"time"

	"stockledger/internal/core/id"
)

// Repository persists reconciliation records and reads the aggregates
// they are computed from.
type Repository interface {
	// SystemStock sums stock of active products in scope. A product scope
	// naming an unknown or inactive product is NOT_FOUND.
	SystemStock(ctx context.Context, scope Scope) (int64, error)

	// Movements sums RECEIPT and ISSUE quantities in [from, to) for scope.
	Movements(ctx context.Context, scope Scope, from, to time.Time) (Totals, error)

	// Upsert inserts or replaces the record for (scope_key, date) and
	// returns the stored row.
	Upsert(ctx context.Context, r *Record) (*Record, error)

	Get(ctx context.Context, scopeKey string, date time.Time) (*Record, error)

	// List returns records newest date first.
	List(ctx context.Context, f ListFilter) ([]Record, error)

	Delete(ctx context.Context, recordID id.ID) error
}
