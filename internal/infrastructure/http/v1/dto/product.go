package dto

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog"
)

// CreateProductRequest creates a product with an opening stock.
type CreateProductRequest struct {
	Name       string       `json:"name" binding:"required,max=200"`
	Brand      string       `json:"brand" binding:"max=100"`
	Type       string       `json:"type" binding:"max=100"`
	TypeNumber string       `json:"type_number" binding:"max=100"`
	Color      string       `json:"color" binding:"max=100"`
	Stock      int64        `json:"stock" binding:"min=0"`
	MinStock   *int64       `json:"min_stock" binding:"omitempty,min=0"`
	BuyPrice   *types.Money `json:"buy_price"`
	SellPrice  *types.Money `json:"sell_price"`
}

// ToEntity builds the product to create.
func (r CreateProductRequest) ToEntity() *catalog.Product {
	p := catalog.NewProduct(r.Name)
	p.Brand = r.Brand
	p.Type = r.Type
	p.TypeNumber = r.TypeNumber
	p.Color = r.Color
	p.Stock = r.Stock
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	if r.BuyPrice != nil {
		p.BuyPrice = *r.BuyPrice
	}
	if r.SellPrice != nil {
		p.SellPrice = *r.SellPrice
	}
	return p
}

// UpdateProductRequest is a partial update. Stock cannot be patched.
type UpdateProductRequest struct {
	Name       *string      `json:"name" binding:"omitempty,max=200"`
	Brand      *string      `json:"brand" binding:"omitempty,max=100"`
	Type       *string      `json:"type" binding:"omitempty,max=100"`
	TypeNumber *string      `json:"type_number" binding:"omitempty,max=100"`
	Color      *string      `json:"color" binding:"omitempty,max=100"`
	MinStock   *int64       `json:"min_stock"`
	BuyPrice   *types.Money `json:"buy_price"`
	SellPrice  *types.Money `json:"sell_price"`
}

func (r UpdateProductRequest) ToPatch() catalog.ProductPatch {
	return catalog.ProductPatch{
		Name:       r.Name,
		Brand:      r.Brand,
		Type:       r.Type,
		TypeNumber: r.TypeNumber,
		Color:      r.Color,
		MinStock:   r.MinStock,
		BuyPrice:   r.BuyPrice,
		SellPrice:  r.SellPrice,
	}
}

// ProductResponse is a product as shown to a user. Prices are omitted for
// roles that may not see them.
type ProductResponse struct {
	ID           id.ID        `json:"id"`
	Name         string       `json:"name"`
	Brand        string       `json:"brand"`
	Type         string       `json:"type"`
	TypeNumber   string       `json:"type_number"`
	Color        string       `json:"color"`
	Stock        int64        `json:"stock"`
	StockBoxes   BoxSplit     `json:"stock_boxes"`
	MinStock     int64        `json:"min_stock"`
	LowStock     bool         `json:"low_stock"`
	PiecesPerBox int64        `json:"pieces_per_box"`
	BuyPrice     *types.Money `json:"buy_price,omitempty"`
	SellPrice    *types.Money `json:"sell_price,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FromProduct maps a product, including prices only when withPrices is set.
func FromProduct(p *catalog.Product, withPrices bool) ProductResponse {
	resp := ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        p.Brand,
		Type:         p.Type,
		TypeNumber:   p.TypeNumber,
		Color:        p.Color,
		Stock:        p.Stock,
		StockBoxes:   NewBoxSplit(p.Stock, p.PiecesPerBox),
		MinStock:     p.MinStock,
		LowStock:     p.IsLowStock(),
		PiecesPerBox: p.PiecesPerBox,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if withPrices {
		buy, sell := p.BuyPrice, p.SellPrice
		resp.BuyPrice = &buy
		resp.SellPrice = &sell
	}
	return resp
}

// FromProducts maps a list.
func FromProducts(items []catalog.Product, withPrices bool) []ProductResponse {
	out := make([]ProductResponse, len(items))
	for i := range items {
		out[i] = FromProduct(&items[i], withPrices)
	}
	return out
}
