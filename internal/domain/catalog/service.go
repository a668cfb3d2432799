package catalog

import (
	"context"
	"fmt"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/pkg/logger"
)

const (
	// MaxSearchResults caps keyword search to bound query cost.
	MaxSearchResults = 50
	maxListResults   = 1000

	entityProduct = "product"
)

// Config holds catalog settings.
type Config struct {
	// DefaultPiecesPerBox is used when a product has no brand or the brand
	// has no box size. Values below 1 become 1.
	DefaultPiecesPerBox int64
}

// Service provides product catalog operations.
type Service struct {
	products   ProductRepository
	brands     BrandRepository
	txManager  tx.Manager
	audit      audit.Recorder
	defaultPPB int64
}

// NewService creates a new catalog service.
func NewService(products ProductRepository, brands BrandRepository, txManager tx.Manager, recorder audit.Recorder, cfg Config) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	ppb := cfg.DefaultPiecesPerBox
	if ppb < 1 {
		ppb = 1
	}
	return &Service{
		products:   products,
		brands:     brands,
		txManager:  txManager,
		audit:      recorder,
		defaultPPB: ppb,
	}
}

// DefaultPiecesPerBox returns the configured fallback box size.
func (s *Service) DefaultPiecesPerBox() int64 {
	return s.defaultPPB
}

// GetByID returns a product, active or not.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.resolveBoxSize(p)
	return p, nil
}

// Search returns at most MaxSearchResults active products matching keyword.
// An empty keyword lists active products.
func (s *Service) Search(ctx context.Context, keyword string, limit int) ([]Product, error) {
	limit = domain.ClampLimit(limit, MaxSearchResults, MaxSearchResults)
	keyword = strings.TrimSpace(keyword)

	var (
		items []Product
		err   error
	)
	if keyword == "" {
		items, err = s.products.ListActive(ctx, limit)
	} else {
		items, err = s.products.Search(ctx, keyword, limit)
	}
	if err != nil {
		return nil, err
	}
	return s.resolveAll(items), nil
}

// ListActive returns active products ordered by name. limit <= 0 returns all.
func (s *Service) ListActive(ctx context.Context, limit int) ([]Product, error) {
	if limit > maxListResults {
		limit = maxListResults
	}
	if limit < 0 {
		limit = 0
	}
	items, err := s.products.ListActive(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(items), nil
}

// ListLowStock returns products at or below their threshold, worst first.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	items, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(items), nil
}

// Create stores a new product. Stock is the opening balance.
func (s *Service) Create(ctx context.Context, p *Product, actorID string) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.IsActive = true

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		changes := p.Snapshot()
		changes["opening_stock"] = p.Stock
		return s.audit.LogChange(ctx, entityProduct, p.ID, audit.ActionCreate, actorID, changes)
	})
	if err != nil {
		return err
	}

	s.resolveBoxSize(p)
	logger.Info(ctx, "product created", "product_id", p.ID, "opening_stock", p.Stock)
	return nil
}

// Update applies a partial patch and returns the updated product.
func (s *Service) Update(ctx context.Context, productID id.ID, patch ProductPatch, actorID string) (*Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.GetByID(ctx, productID)
	}

	var updated *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		before := current.Snapshot()

		if err := s.products.Update(ctx, productID, patch); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		patch.Apply(current)

		if err := s.audit.LogChange(ctx, entityProduct, productID, audit.ActionUpdate, actorID,
			audit.Diff(before, current.Snapshot())); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Box size follows the brand, which may have changed.
	return s.GetByID(ctx, updated.ID)
}

// SoftDelete deactivates a product. Its ledger history is kept.
func (s *Service) SoftDelete(ctx context.Context, productID id.ID, actorID string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return nil
		}
		if err := s.products.SetActive(ctx, productID, false); err != nil {
			return fmt.Errorf("deactivate product: %w", err)
		}
		return s.audit.LogChange(ctx, entityProduct, productID, audit.ActionDelete, actorID,
			map[string]any{"is_active": map[string]any{"old": true, "new": false}, "stock": p.Stock})
	})
}

// ListBrands returns brand master data.
func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	return s.brands.List(ctx)
}

// PiecesPerBox returns the box size for a brand name, or the default.
func (s *Service) PiecesPerBox(ctx context.Context, brand string) (int64, error) {
	if strings.TrimSpace(brand) == "" {
		return s.defaultPPB, nil
	}
	b, err := s.brands.GetByName(ctx, brand)
	if err != nil {
		if apperror.IsNotFound(err) {
			return s.defaultPPB, nil
		}
		return 0, err
	}
	if b.PiecesPerBox < 1 {
		return s.defaultPPB, nil
	}
	return b.PiecesPerBox, nil
}

func (s *Service) resolveBoxSize(p *Product) {
	if p.PiecesPerBox < 1 {
		p.PiecesPerBox = s.defaultPPB
	}
}

func (s *Service) resolveAll(items []Product) []Product {
	for i := range items {
		s.resolveBoxSize(&items[i])
	}
	return items
}
