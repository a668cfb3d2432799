// Package tx defines the transaction boundary used by domain services.
// The PostgreSQL implementation lives in infrastructure/storage/postgres;
// tests use an in-memory implementation.
package tx

import (
	"context"
)

// Manager runs fn inside one database transaction.
// An error from fn rolls the transaction back; nil commits it.
// Nested calls reuse the transaction already carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for consistent multi-query reads.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
