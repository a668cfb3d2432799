package catalog

import (
	"context"

	"stockledger/internal/core/id"
)

// ProductRepository persists products. Read methods fill PiecesPerBox
// from the matching brand, or 0 when there is none.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// Search matches keyword case-insensitively against name, brand, type,
	// type_number and color of active products, ordered by name.
	Search(ctx context.Context, keyword string, limit int) ([]Product, error)

	// ListActive returns active products ordered by name; limit 0 means all.
	ListActive(ctx context.Context, limit int) ([]Product, error)

	// ListLowStock returns active products with stock <= min_stock,
	// largest deficit first.
	ListLowStock(ctx context.Context) ([]Product, error)

	// Update writes the patched descriptive fields. It never writes stock.
	Update(ctx context.Context, productID id.ID, patch ProductPatch) error

	SetActive(ctx context.Context, productID id.ID, active bool) error
}

// BrandRepository is the read side of brand master data.
type BrandRepository interface {
	List(ctx context.Context) ([]Brand, error)

	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*Brand, error)
}
