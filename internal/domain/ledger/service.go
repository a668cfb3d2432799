package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/pkg/logger"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000

	entityEntry   = "ledger_entry"
	entityProduct = "product"
)

// Config holds ledger settings.
type Config struct {
	// PageLimit is the default history page size.
	PageLimit int

	// Now returns the timestamp recorded on new entries. Defaults to UTC now.
	Now func() time.Time
}

// Service executes stock operations. Every mutation runs as
// lock product row -> compute -> write stock -> append entry inside one
// transaction, so concurrent writers on a product serialise.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Recorder
	pageLimit int
	now       func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager, recorder audit.Recorder, cfg Config) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		audit:     recorder,
		pageLimit: domain.ClampLimit(cfg.PageLimit, DefaultPageLimit, MaxPageLimit),
		now:       cfg.Now,
	}
}

// transition computes the new stock from the locked current stock.
type transition func(current int64) (newStock, quantity int64, note string, err error)

// Receive adds qty pieces to a product.
func (s *Service) Receive(ctx context.Context, productID id.ID, qty int64, note string, actorID id.ID) (*Entry, error) {
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}
	return s.apply(ctx, productID, actorID, KindReceipt, func(current int64) (int64, int64, string, error) {
		if qty > math.MaxInt64-current {
			return 0, 0, "", apperror.NewValidation("quantity too large").
				WithDetail("field", "quantity").
				WithDetail("value", qty)
		}
		return current + qty, qty, note, nil
	})
}

// Issue removes qty pieces. It fails without effect when qty exceeds stock.
func (s *Service) Issue(ctx context.Context, productID id.ID, qty int64, note string, actorID id.ID) (*Entry, error) {
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}
	return s.apply(ctx, productID, actorID, KindIssue, func(current int64) (int64, int64, string, error) {
		if qty > current {
			return 0, 0, "", apperror.NewInsufficientStock(productID.String(), qty, current)
		}
		return current - qty, qty, note, nil
	})
}

// Adjust sets stock to a physically counted value. An entry is recorded
// even when the count matches, as evidence of the check.
func (s *Service) Adjust(ctx context.Context, productID id.ID, physicalCount int64, note string, actorID id.ID) (*Entry, error) {
	if physicalCount < 0 {
		return nil, apperror.NewValidation("physical count must not be negative").
			WithDetail("field", "physical_count").
			WithDetail("value", physicalCount)
	}
	return s.apply(ctx, productID, actorID, KindAdjustment, func(current int64) (int64, int64, string, error) {
		diff := physicalCount - current
		if strings.TrimSpace(note) == "" {
			note = AdjustmentNote(diff)
		}
		return physicalCount, abs(diff), note, nil
	})
}

// CheckIssue reports, without side effects, whether qty could be issued now.
func (s *Service) CheckIssue(ctx context.Context, productID id.ID, qty int64) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}
	row, err := s.repo.ReadProduct(ctx, productID)
	if err != nil {
		return err
	}
	if !row.IsActive {
		return apperror.NewNotFound(entityProduct, productID)
	}
	if qty > row.Stock {
		return apperror.NewInsufficientStock(productID.String(), qty, row.Stock)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, productID, actorID id.ID, kind Kind, next transition) (*Entry, error) {
	if id.IsNil(actorID) {
		return nil, apperror.NewValidation("actor is required").WithDetail("field", "actor_id")
	}

	var entry *Entry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.repo.LockProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !row.IsActive {
			return apperror.NewNotFound(entityProduct, productID)
		}

		newStock, quantity, note, err := next(row.Stock)
		if err != nil {
			return err
		}
		if newStock < 0 {
			return apperror.NewInsufficientStock(productID.String(), row.Stock-newStock, row.Stock)
		}

		if newStock != row.Stock {
			if err := s.repo.SetStock(ctx, productID, newStock); err != nil {
				return fmt.Errorf("set stock: %w", err)
			}
		}

		before := row.Stock
		entry = &Entry{
			ID:          id.New(),
			ProductID:   productID,
			ActorID:     actorID,
			Kind:        kind,
			Quantity:    quantity,
			StockBefore: &before,
			StockAfter:  newStock,
			Note:        strings.TrimSpace(note),
			CreatedAt:   s.now(),
		}
		if err := s.repo.Insert(ctx, entry); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "recorded ledger entry",
		"entry_id", entry.ID,
		"product_id", productID,
		"kind", kind,
		"quantity", entry.Quantity,
		"stock_after", entry.StockAfter,
	)
	return entry, nil
}

// DeleteEntry reverts an entry's effect on current stock and removes it.
// A nil error means the entry was deleted.
func (s *Service) DeleteEntry(ctx context.Context, entryID, actorID id.ID) error {
	var (
		deleted  *Entry
		restored int64
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}
		delta, ok := e.Delta()
		if !ok {
			return apperror.NewReversalUnsupported(entryID.String(), string(e.Kind))
		}

		row, err := s.repo.LockProduct(ctx, e.ProductID)
		if err != nil {
			return err
		}
		if !row.IsActive {
			return apperror.NewNotFound(entityProduct, e.ProductID)
		}

		if delta < 0 && row.Stock > math.MaxInt64+delta {
			return apperror.NewValidation("reverting entry would exceed the maximum stock").
				WithDetail("entry_id", entryID.String())
		}
		restored = row.Stock - delta
		if restored < 0 {
			return apperror.NewInsufficientStock(e.ProductID.String(), delta, row.Stock).
				WithDetail("entry_id", entryID.String())
		}

		if restored != row.Stock {
			if err := s.repo.SetStock(ctx, e.ProductID, restored); err != nil {
				return fmt.Errorf("set stock: %w", err)
			}
		}
		if err := s.repo.Delete(ctx, entryID); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}

		deleted = e
		return s.audit.LogChange(ctx, entityEntry, entryID, audit.ActionDelete, actorID.String(), map[string]any{
			"entry":             e,
			"stock_before":      row.Stock,
			"stock_restored_to": restored,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "reverted ledger entry",
		"entry_id", entryID,
		"product_id", deleted.ProductID,
		"kind", deleted.Kind,
		"stock_after", restored,
	)
	return nil
}

// History lists entries newest first, one bounded page at a time.
func (s *Service) History(ctx context.Context, f Filter) (domain.ListResult[EntryView], error) {
	if err := f.Validate(); err != nil {
		return domain.ListResult[EntryView]{}, err
	}
	f.Limit = domain.ClampLimit(f.Limit, s.pageLimit, MaxPageLimit)

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ListResult[EntryView]{}, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return domain.ListResult[EntryView]{}, err
	}

	return domain.ListResult[EntryView]{
		Items:      items,
		TotalCount: total,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

// Recent returns the latest entries across all products.
func (s *Service) Recent(ctx context.Context, limit int) ([]EntryView, error) {
	return s.repo.List(ctx, Filter{Limit: domain.ClampLimit(limit, 10, MaxPageLimit)})
}

// Count returns the number of entries matching f.
func (s *Service) Count(ctx context.Context, f Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, f)
}

func validateQuantity(qty int64) error {
	if qty <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", qty)
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
