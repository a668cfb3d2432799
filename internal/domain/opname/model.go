// Package opname reconciles recorded stock against physical counts.
// It reads stock and the day's movements and writes reconciliation
// records; it never changes product stock.
package opname

import (
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// ScopeKind is the aggregation level of a count.
type ScopeKind string

const (
	ScopeProduct ScopeKind = "product"
	ScopeBrand   ScopeKind = "brand"
	ScopeAll     ScopeKind = "all"
)

// DateLayout is the calendar-date format used in keys and requests.
const DateLayout = "2006-01-02"

// Scope selects the products a count covers.
type Scope struct {
	Kind      ScopeKind
	ProductID id.ID
	Brand     string
}

// ProductScope covers one product.
func ProductScope(productID id.ID) Scope {
	return Scope{Kind: ScopeProduct, ProductID: productID}
}

// BrandScope covers all active products of a brand, matched case-insensitively.
func BrandScope(brand string) Scope {
	return Scope{Kind: ScopeBrand, Brand: strings.ToLower(strings.TrimSpace(brand))}
}

// AllScope covers every active product.
func AllScope() Scope {
	return Scope{Kind: ScopeAll}
}

// Key is the stored form: "product:<uuid>", "brand:<name>" or "all".
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeProduct:
		return string(ScopeProduct) + ":" + s.ProductID.String()
	case ScopeBrand:
		return string(ScopeBrand) + ":" + s.Brand
	default:
		return string(ScopeAll)
	}
}

func (s Scope) String() string { return s.Key() }

// ParseScope parses a key produced by Key.
func ParseScope(key string) (Scope, error) {
	key = strings.TrimSpace(key)
	if key == string(ScopeAll) {
		return AllScope(), nil
	}

	kind, value, found := strings.Cut(key, ":")
	if !found || strings.TrimSpace(value) == "" {
		return Scope{}, invalidScope(key)
	}

	switch ScopeKind(kind) {
	case ScopeProduct:
		productID, err := id.Parse(value)
		if err != nil {
			return Scope{}, invalidScope(key)
		}
		return ProductScope(productID), nil
	case ScopeBrand:
		return BrandScope(value), nil
	}
	return Scope{}, invalidScope(key)
}

func invalidScope(key string) error {
	return apperror.NewValidation("invalid scope; expected product:<id>, brand:<name> or all").
		WithDetail("field", "scope").
		WithDetail("value", key)
}

// Record is the saved result of one count for a scope and calendar date.
type Record struct {
	ID            id.ID     `db:"id" json:"id"`
	ScopeKey      string    `db:"scope_key" json:"scope_key"`
	Date          time.Time `db:"date" json:"date"`
	SystemStock   int64     `db:"system_stock" json:"system_stock"`
	PhysicalStock int64     `db:"physical_stock" json:"physical_stock"`
	Difference    int64     `db:"difference" json:"difference"`
	TotalIn       int64     `db:"total_in" json:"total_in"`
	TotalOut      int64     `db:"total_out" json:"total_out"`
	Note          string    `db:"note" json:"note"`
	ActorID       id.ID     `db:"actor_id" json:"actor_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DateString formats the record date as YYYY-MM-DD.
func (r *Record) DateString() string {
	return r.Date.Format(DateLayout)
}

// Preview is the live difference for a candidate count.
type Preview struct {
	ScopeKey      string `json:"scope_key"`
	SystemStock   int64  `json:"system_stock"`
	PhysicalStock int64  `json:"physical_stock"`
	Difference    int64  `json:"difference"`
}

// Totals are a period's RECEIPT and ISSUE sums.
type Totals struct {
	In  int64 `db:"total_in" json:"total_in"`
	Out int64 `db:"total_out" json:"total_out"`
}

// ListFilter selects records. Dates are inclusive calendar dates.
type ListFilter struct {
	ScopeKey *string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Validate checks the date range.
func (f ListFilter) Validate() error {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return apperror.NewValidation(fmt.Sprintf("date range end %s precedes start %s",
			f.To.Format(DateLayout), f.From.Format(DateLayout)))
	}
	return nil
}
