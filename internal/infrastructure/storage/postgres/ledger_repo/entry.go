// Package ledger_repo provides the PostgreSQL ledger repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	entriesTable  = "ledger_entries"
	productsTable = "products"
)

var entryColumns = []string{
	"id", "product_id", "actor_id", "kind", "quantity",
	"stock_before", "stock_after", "note", "created_at",
}

var _ ledger.Repository = (*EntryRepo)(nil)

// EntryRepo implements ledger.Repository.
type EntryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewEntryRepo creates a new ledger repository.
func NewEntryRepo(txManager *postgres.TxManager) *EntryRepo {
	return &EntryRepo{txManager: txManager, builder: postgres.Builder()}
}

// LockProduct returns the product stock row with a pessimistic lock.
func (r *EntryRepo) LockProduct(ctx context.Context, productID id.ID) (*ledger.ProductStock, error) {
	return r.readProduct(ctx, productID, r.lockProductQuery(productID))
}

// ReadProduct returns the product stock row without locking.
func (r *EntryRepo) ReadProduct(ctx context.Context, productID id.ID) (*ledger.ProductStock, error) {
	return r.readProduct(ctx, productID, r.productQuery(productID))
}

func (r *EntryRepo) productQuery(productID id.ID) squirrel.SelectBuilder {
	return r.builder.Select("id", "stock", "is_active").
		From(productsTable).
		Where(squirrel.Eq{"id": productID})
}

func (r *EntryRepo) lockProductQuery(productID id.ID) squirrel.SelectBuilder {
	return r.productQuery(productID).Suffix("FOR UPDATE")
}

func (r *EntryRepo) readProduct(ctx context.Context, productID id.ID, q squirrel.SelectBuilder) (*ledger.ProductStock, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ps ledger.ProductStock
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &ps, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product stock: %w", err)
	}
	return &ps, nil
}

// SetStock writes the cached stock of a product.
func (r *EntryRepo) SetStock(ctx context.Context, productID id.ID, stock int64) error {
	sql, args, err := r.builder.Update(productsTable).
		Set("stock", stock).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// Insert appends an entry.
func (r *EntryRepo) Insert(ctx context.Context, e *ledger.Entry) error {
	sql, args, err := r.builder.Insert(entriesTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(e), entryColumns)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// LockEntry returns an entry with a pessimistic lock.
func (r *EntryRepo) LockEntry(ctx context.Context, entryID id.ID) (*ledger.Entry, error) {
	sql, args, err := r.lockEntryQuery(entryID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e ledger.Entry
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ledger entry", entryID.String())
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

func (r *EntryRepo) lockEntryQuery(entryID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Suffix("FOR UPDATE")
}

// Delete removes an entry.
func (r *EntryRepo) Delete(ctx context.Context, entryID id.ID) error {
	sql, args, err := r.builder.Delete(entriesTable).Where(squirrel.Eq{"id": entryID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("ledger entry", entryID.String())
	}
	return nil
}

// List returns entries newest first with product and actor names.
func (r *EntryRepo) List(ctx context.Context, f ledger.Filter) ([]ledger.EntryView, error) {
	sql, args, err := r.listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []ledger.EntryView
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return items, nil
}

// Count returns the number of entries matching f, ignoring paging.
func (r *EntryRepo) Count(ctx context.Context, f ledger.Filter) (int64, error) {
	sql, args, err := applyFilter(r.builder.Select("COUNT(*)").From(entriesTable+" e"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (r *EntryRepo) listQuery(f ledger.Filter) squirrel.SelectBuilder {
	cols := make([]string, 0, len(entryColumns)+2)
	for _, c := range entryColumns {
		cols = append(cols, "e."+c)
	}
	cols = append(cols,
		"p.name AS product_name",
		"COALESCE(NULLIF(u.full_name, ''), u.username, '') AS actor_name",
	)

	q := r.builder.Select(cols...).
		From(entriesTable + " e").
		Join(productsTable + " p ON p.id = e.product_id").
		LeftJoin("users u ON u.id = e.actor_id").
		OrderBy("e.created_at DESC", "e.id DESC")

	q = applyFilter(q, f)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

func applyFilter(q squirrel.SelectBuilder, f ledger.Filter) squirrel.SelectBuilder {
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"e.product_id": *f.ProductID})
	}
	if f.ActorID != nil {
		q = q.Where(squirrel.Eq{"e.actor_id": *f.ActorID})
	}
	if f.Kind != nil {
		q = q.Where(squirrel.Eq{"e.kind": string(*f.Kind)})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"e.created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"e.created_at": *f.To})
	}
	return q
}
