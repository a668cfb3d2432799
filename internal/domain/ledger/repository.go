package ledger

import (
	"context"

	"stockledger/internal/core/id"
)

// Repository is the storage of product stock and ledger entries.
// Lock methods must be called inside a transaction; the lock is held
// until it ends.
type Repository interface {
	// LockProduct reads the stock row with SELECT ... FOR UPDATE.
	LockProduct(ctx context.Context, productID id.ID) (*ProductStock, error)

	// ReadProduct reads the stock row without locking.
	ReadProduct(ctx context.Context, productID id.ID) (*ProductStock, error)

	SetStock(ctx context.Context, productID id.ID, stock int64) error

	Insert(ctx context.Context, e *Entry) error

	// LockEntry reads an entry with SELECT ... FOR UPDATE.
	LockEntry(ctx context.Context, entryID id.ID) (*Entry, error)

	Delete(ctx context.Context, entryID id.ID) error

	// List returns entries newest first.
	List(ctx context.Context, f Filter) ([]EntryView, error)

	Count(ctx context.Context, f Filter) (int64, error)
}
