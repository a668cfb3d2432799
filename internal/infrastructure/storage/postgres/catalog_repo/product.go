// Package catalog_repo provides PostgreSQL repositories for products and brands.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// productColumns are the stored columns; pieces_per_box is joined from brands.
var productColumns = []string{
	"id", "name", "brand", "type", "type_number", "color", "stock", "min_stock",
	"buy_price", "sell_price", "is_active", "created_at", "updated_at",
}

var searchColumns = []string{"p.name", "p.brand", "p.type", "p.type_number", "p.color"}

var _ catalog.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager, builder: postgres.Builder()}
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	cols := make([]string, 0, len(productColumns)+1)
	for _, c := range productColumns {
		cols = append(cols, "p."+c)
	}
	cols = append(cols, "COALESCE(b.pieces_per_box, 0) AS pieces_per_box")

	return r.builder.Select(cols...).
		From(productsTable + " p").
		LeftJoin("brands b ON lower(b.name) = lower(p.brand)")
}

// Create inserts a product.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	sql, args, err := r.builder.Insert(productsTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(p), productColumns)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product, active or not.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	sql, args, err := r.baseSelect().Where(squirrel.Eq{"p.id": productID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Search matches keyword against the descriptive columns of active products.
func (r *ProductRepo) Search(ctx context.Context, keyword string, limit int) ([]catalog.Product, error) {
	return r.selectProducts(ctx, r.searchQuery(keyword, limit))
}

func (r *ProductRepo) searchQuery(keyword string, limit int) squirrel.SelectBuilder {
	pattern := "%" + escapeLike(keyword) + "%"
	match := make(squirrel.Or, 0, len(searchColumns))
	for _, c := range searchColumns {
		match = append(match, squirrel.ILike{c: pattern})
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"p.is_active": true}).
		Where(match).
		OrderBy("p.name", "p.id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

// ListActive returns active products ordered by name; limit 0 means all.
func (r *ProductRepo) ListActive(ctx context.Context, limit int) ([]catalog.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"p.is_active": true}).
		OrderBy("p.name", "p.id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.selectProducts(ctx, q)
}

// ListLowStock returns active products at or below their threshold.
func (r *ProductRepo) ListLowStock(ctx context.Context) ([]catalog.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"p.is_active": true}).
		Where("p.stock <= p.min_stock").
		OrderBy("p.stock - p.min_stock", "p.name")
	return r.selectProducts(ctx, q)
}

func (r *ProductRepo) selectProducts(ctx context.Context, q squirrel.SelectBuilder) ([]catalog.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []catalog.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return items, nil
}

// Update writes the fields present in patch.
func (r *ProductRepo) Update(ctx context.Context, productID id.ID, patch catalog.ProductPatch) error {
	set := patchColumns(patch)
	if len(set) == 0 {
		return nil
	}

	sql, args, err := r.builder.Update(productsTable).
		SetMap(set).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.exec(ctx, productID, sql, args)
}

// SetActive flips the soft-delete flag.
func (r *ProductRepo) SetActive(ctx context.Context, productID id.ID, active bool) error {
	sql, args, err := r.builder.Update(productsTable).
		Set("is_active", active).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return r.exec(ctx, productID, sql, args)
}

func (r *ProductRepo) exec(ctx context.Context, productID id.ID, sql string, args []any) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

func patchColumns(p catalog.ProductPatch) map[string]any {
	set := make(map[string]any)
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Brand != nil {
		set["brand"] = *p.Brand
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.TypeNumber != nil {
		set["type_number"] = *p.TypeNumber
	}
	if p.Color != nil {
		set["color"] = *p.Color
	}
	if p.MinStock != nil {
		set["min_stock"] = *p.MinStock
	}
	if p.BuyPrice != nil {
		set["buy_price"] = *p.BuyPrice
	}
	if p.SellPrice != nil {
		set["sell_price"] = *p.SellPrice
	}
	return set
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
