// Package ledger applies stock-changing operations and keeps the
// append-only trail of them. It is the only writer of products.stock.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Kind is the type of a ledger entry.
type Kind string

const (
	KindReceipt    Kind = "RECEIPT"
	KindIssue      Kind = "ISSUE"
	KindAdjustment Kind = "ADJUSTMENT"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindReceipt, KindIssue, KindAdjustment:
		return true
	}
	return false
}

// ParseKind accepts any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", apperror.NewValidation("unknown entry kind").
			WithDetail("field", "kind").
			WithDetail("value", s)
	}
	return k, nil
}

// Entry is one applied stock change.
// Quantity is an unsigned magnitude; StockAfter is a snapshot, not a delta.
type Entry struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"product_id"`
	ActorID   id.ID `db:"actor_id" json:"actor_id"`
	Kind      Kind  `db:"kind" json:"kind"`
	Quantity  int64 `db:"quantity" json:"quantity"`

	// StockBefore is nil only for rows imported without it.
	StockBefore *int64    `db:"stock_before" json:"stock_before,omitempty"`
	StockAfter  int64     `db:"stock_after" json:"stock_after"`
	Note        string    `db:"note" json:"note"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Delta returns the signed stock change this entry applied.
// ok is false when the change cannot be derived from the row.
func (e *Entry) Delta() (delta int64, ok bool) {
	switch e.Kind {
	case KindReceipt:
		return e.Quantity, true
	case KindIssue:
		return -e.Quantity, true
	case KindAdjustment:
		if e.StockBefore == nil {
			return 0, false
		}
		return e.StockAfter - *e.StockBefore, true
	}
	return 0, false
}

// EntryView is an entry joined with display names for history listings.
type EntryView struct {
	Entry
	ProductName string `db:"product_name" json:"product_name"`
	ActorName   string `db:"actor_name" json:"actor_name"`
}

// ProductStock is the locked stock row of a product.
type ProductStock struct {
	ProductID id.ID `db:"id"`
	Stock     int64 `db:"stock"`
	IsActive  bool  `db:"is_active"`
}

// Filter selects history entries. Nil fields do not filter.
// From is inclusive, To is exclusive.
type Filter struct {
	ProductID *id.ID
	ActorID   *id.ID
	Kind      *Kind
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Validate checks the filter's range.
func (f Filter) Validate() error {
	if f.Kind != nil && !f.Kind.Valid() {
		return apperror.NewValidation("unknown entry kind").WithDetail("field", "kind")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return apperror.NewValidation("date range end precedes its start").
			WithDetail("from", f.From).
			WithDetail("to", f.To)
	}
	if f.Offset < 0 {
		return apperror.NewValidation("offset must not be negative").WithDetail("field", "offset")
	}
	return nil
}

// AdjustmentNote describes a physical count result.
func AdjustmentNote(diff int64) string {
	switch {
	case diff > 0:
		return fmt.Sprintf("Opname: Excess (+%d)", diff)
	case diff < 0:
		return fmt.Sprintf("Opname: Loss (%d)", diff)
	default:
		return "Opname: Match"
	}
}
