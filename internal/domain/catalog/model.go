// Package catalog owns product identity, thresholds, prices and the brand
// lookup used for box sizes. It never writes Product.Stock after creation;
// stock belongs to the ledger.
package catalog

import (
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// DefaultMinStock is used when a product is created without a threshold.
const DefaultMinStock int64 = 5

// Product is a stock-keeping item.
type Product struct {
	ID         id.ID       `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	Brand      string      `db:"brand" json:"brand"`
	Type       string      `db:"type" json:"type"`
	TypeNumber string      `db:"type_number" json:"type_number"`
	Color      string      `db:"color" json:"color"`
	Stock      int64       `db:"stock" json:"stock"`
	MinStock   int64       `db:"min_stock" json:"min_stock"`
	BuyPrice   types.Money `db:"buy_price" json:"buy_price"`
	SellPrice  types.Money `db:"sell_price" json:"sell_price"`
	IsActive   bool        `db:"is_active" json:"is_active"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`

	// PiecesPerBox comes from the brand row matched by name; 0 until resolved.
	PiecesPerBox int64 `db:"pieces_per_box" json:"pieces_per_box"`
}

// NewProduct creates an active product with the default threshold.
func NewProduct(name string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		Name:      strings.TrimSpace(name),
		MinStock:  DefaultMinStock,
		BuyPrice:  types.Zero(),
		SellPrice: types.Zero(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks field invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Stock < 0 {
		return apperror.NewValidation("stock must not be negative").WithDetail("field", "stock")
	}
	if p.MinStock < 0 {
		return apperror.NewValidation("min_stock must not be negative").WithDetail("field", "min_stock")
	}
	if p.BuyPrice.IsNegative() || p.SellPrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative").WithDetail("field", "price")
	}
	return nil
}

// IsLowStock reports whether stock has reached the threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// Snapshot returns the audited fields.
func (p *Product) Snapshot() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"brand":       p.Brand,
		"type":        p.Type,
		"type_number": p.TypeNumber,
		"color":       p.Color,
		"min_stock":   p.MinStock,
		"buy_price":   p.BuyPrice.String(),
		"sell_price":  p.SellPrice.String(),
		"is_active":   p.IsActive,
	}
}

// ProductPatch is a partial update. Nil fields are left untouched.
// Stock is deliberately absent.
type ProductPatch struct {
	Name       *string
	Brand      *string
	Type       *string
	TypeNumber *string
	Color      *string
	MinStock   *int64
	BuyPrice   *types.Money
	SellPrice  *types.Money
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Brand == nil && p.Type == nil && p.TypeNumber == nil &&
		p.Color == nil && p.MinStock == nil && p.BuyPrice == nil && p.SellPrice == nil
}

// Validate checks the fields that are present.
func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperror.NewValidation("name must not be empty").WithDetail("field", "name")
	}
	if p.MinStock != nil && *p.MinStock < 0 {
		return apperror.NewValidation("min_stock must not be negative").WithDetail("field", "min_stock")
	}
	if (p.BuyPrice != nil && p.BuyPrice.IsNegative()) || (p.SellPrice != nil && p.SellPrice.IsNegative()) {
		return apperror.NewValidation("prices must not be negative").WithDetail("field", "price")
	}
	return nil
}

// Apply copies the present fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = strings.TrimSpace(*p.Name)
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Type != nil {
		product.Type = *p.Type
	}
	if p.TypeNumber != nil {
		product.TypeNumber = *p.TypeNumber
	}
	if p.Color != nil {
		product.Color = *p.Color
	}
	if p.MinStock != nil {
		product.MinStock = *p.MinStock
	}
	if p.BuyPrice != nil {
		product.BuyPrice = *p.BuyPrice
	}
	if p.SellPrice != nil {
		product.SellPrice = *p.SellPrice
	}
}

// Brand is master data consumed read-only for box sizes.
type Brand struct {
	ID           id.ID  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	PiecesPerBox int64  `db:"pieces_per_box" json:"pieces_per_box"`
}
