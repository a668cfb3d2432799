// Package report_repo provides the PostgreSQL report queries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager, builder: postgres.Builder()}
}

// Movements sums RECEIPT and ISSUE quantities in [from, to).
func (r *ReportRepo) Movements(ctx context.Context, from, to time.Time) (int64, int64, error) {
	sql, args, err := r.movementsQuery(from, to).ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build query: %w", err)
	}

	var in, out int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&in, &out); err != nil {
		return 0, 0, fmt.Errorf("movement totals: %w", err)
	}
	return in, out, nil
}

func (r *ReportRepo) movementsQuery(from, to time.Time) squirrel.SelectBuilder {
	return r.builder.Select(
		sumOf(ledger.KindReceipt)+" AS total_in",
		sumOf(ledger.KindIssue)+" AS total_out",
	).
		From("ledger_entries").
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to})
}

// MonthlySales aggregates RECEIPT and ISSUE entries per product.
func (r *ReportRepo) MonthlySales(ctx context.Context, from, to time.Time) ([]reports.MonthlySalesItem, error) {
	sql, args, err := r.monthlySalesQuery(from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []reports.MonthlySalesItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}
	return items, nil
}

func (r *ReportRepo) monthlySalesQuery(from, to time.Time) squirrel.SelectBuilder {
	return r.builder.Select(
		"p.id AS product_id",
		"p.name AS product_name",
		"p.brand", "p.type", "p.type_number", "p.color",
		sumOf(ledger.KindIssue)+" AS total_qty_out",
		sumOf(ledger.KindReceipt)+" AS total_qty_in",
		"COUNT(*) AS transaction_count",
	).
		From("ledger_entries e").
		Join("products p ON p.id = e.product_id").
		Where(squirrel.Eq{"e.kind": []string{string(ledger.KindReceipt), string(ledger.KindIssue)}}).
		Where(squirrel.GtOrEq{"e.created_at": from}).
		Where(squirrel.Lt{"e.created_at": to}).
		GroupBy("p.id", "p.name", "p.brand", "p.type", "p.type_number", "p.color").
		OrderBy("total_qty_out DESC", "p.name")
}

// StockSummary aggregates active products. Asset value is stock at buy price.
func (r *ReportRepo) StockSummary(ctx context.Context) (reports.StockSummary, error) {
	var s reports.StockSummary
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, `
		SELECT
			COUNT(*) AS product_count,
			COALESCE(SUM(stock), 0) AS total_stock,
			COUNT(*) FILTER (WHERE stock <= min_stock) AS low_stock_count,
			COALESCE(SUM(stock * buy_price), 0)::text AS total_asset_value
		FROM products
		WHERE is_active
	`)
	if err != nil {
		return s, fmt.Errorf("stock summary: %w", err)
	}
	return s, nil
}

// EntryCount returns the number of ledger entries.
func (r *ReportRepo) EntryCount(ctx context.Context) (int64, error) {
	var n int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func sumOf(kind ledger.Kind) string {
	return fmt.Sprintf("COALESCE(SUM(quantity) FILTER (WHERE kind = '%s'), 0)", kind)
}
