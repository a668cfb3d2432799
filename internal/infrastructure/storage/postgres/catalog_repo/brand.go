package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/infrastructure/storage/postgres"
)

var _ catalog.BrandRepository = (*BrandRepo)(nil)

// BrandRepo implements catalog.BrandRepository.
type BrandRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBrandRepo creates a new brand repository.
func NewBrandRepo(txManager *postgres.TxManager) *BrandRepo {
	return &BrandRepo{txManager: txManager, builder: postgres.Builder()}
}

// List returns brands ordered by name.
func (r *BrandRepo) List(ctx context.Context) ([]catalog.Brand, error) {
	sql, args, err := r.builder.Select(brandColumns...).
		From("brands").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []catalog.Brand
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select brands: %w", err)
	}
	return items, nil
}

// GetByName matches case-insensitively.
func (r *BrandRepo) GetByName(ctx context.Context, name string) (*catalog.Brand, error) {
	sql, args, err := r.builder.Select(brandColumns...).
		From("brands").
		Where(squirrel.Expr("lower(name) = ?", strings.ToLower(strings.TrimSpace(name)))).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b catalog.Brand
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("brand", name)
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return &b, nil
}
