package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// CatalogService is the product catalog as used over HTTP.
type CatalogService interface {
	GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error)
	Search(ctx context.Context, keyword string, limit int) ([]catalog.Product, error)
	ListActive(ctx context.Context, limit int) ([]catalog.Product, error)
	ListLowStock(ctx context.Context) ([]catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product, actorID string) error
	Update(ctx context.Context, productID id.ID, patch catalog.ProductPatch, actorID string) (*catalog.Product, error)
	SoftDelete(ctx context.Context, productID id.ID, actorID string) error
	ListBrands(ctx context.Context) ([]catalog.Brand, error)
}

// ProductHandler serves products and brands.
type ProductHandler struct {
	*BaseHandler
	service CatalogService
}

func NewProductHandler(base *BaseHandler, service CatalogService) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

func (h *ProductHandler) withPrices(c *gin.Context) bool {
	return h.Can(c, security.ActionViewPrices)
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
	limit, ok := h.ParseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	items, err := h.service.ListActive(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(dto.FromProducts(items, h.withPrices(c))))
}

// Search handles GET /products/search?q=&limit=.
func (h *ProductHandler) Search(c *gin.Context) {
	limit, ok := h.ParseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	items, err := h.service.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(dto.FromProducts(items, h.withPrices(c))))
}

// LowStock handles GET /products/low-stock.
func (h *ProductHandler) LowStock(c *gin.Context) {
	items, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(dto.FromProducts(items, h.withPrices(c))))
}

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p, h.withPrices(c)))
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p, actorID.String()); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromProduct(p, true))
}

// Update handles PATCH /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	p, err := h.service.Update(c.Request.Context(), productID, req.ToPatch(), actorID.String())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p, true))
}

// Delete handles DELETE /products/:id. The product is deactivated, its
// history is kept.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	if err := h.service.SoftDelete(c.Request.Context(), productID, actorID.String()); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Brands handles GET /brands.
func (h *ProductHandler) Brands(c *gin.Context) {
	items, err := h.service.ListBrands(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(items))
}
