// Package opname_repo provides the PostgreSQL reconciliation repository.
package opname_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/opname"
	"stockledger/internal/infrastructure/storage/postgres"
)

const recordsTable = "reconciliation_records"

var recordColumns = []string{
	"id", "scope_key", "date", "system_stock", "physical_stock", "difference",
	"total_in", "total_out", "note", "actor_id", "created_at", "updated_at",
}

var _ opname.Repository = (*RecordRepo)(nil)

// RecordRepo implements opname.Repository.
type RecordRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRecordRepo creates a new reconciliation repository.
func NewRecordRepo(txManager *postgres.TxManager) *RecordRepo {
	return &RecordRepo{txManager: txManager, builder: postgres.Builder()}
}

// scopeWhere restricts products p to active products in scope.
func scopeWhere(scope opname.Scope) squirrel.Sqlizer {
	active := squirrel.Expr("p.is_active")
	switch scope.Kind {
	case opname.ScopeProduct:
		return squirrel.And{active, squirrel.Eq{"p.id": scope.ProductID}}
	case opname.ScopeBrand:
		return squirrel.And{active, squirrel.Expr("lower(p.brand) = ?", scope.Brand)}
	default:
		return active
	}
}

// SystemStock sums stock over scope.
func (r *RecordRepo) SystemStock(ctx context.Context, scope opname.Scope) (int64, error) {
	q := r.builder.Select("COALESCE(SUM(p.stock), 0)", "COUNT(*)").
		From("products p").
		Where(scopeWhere(scope))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var sum, n int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum, &n); err != nil {
		return 0, fmt.Errorf("system stock: %w", err)
	}
	if scope.Kind == opname.ScopeProduct && n == 0 {
		return 0, apperror.NewNotFound("product", scope.ProductID.String())
	}
	return sum, nil
}

// Movements sums RECEIPT and ISSUE quantities in [from, to) for scope.
func (r *RecordRepo) Movements(ctx context.Context, scope opname.Scope, from, to time.Time) (opname.Totals, error) {
	sql, args, err := r.movementsQuery(scope, from, to).ToSql()
	if err != nil {
		return opname.Totals{}, fmt.Errorf("build query: %w", err)
	}

	var t opname.Totals
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		return t, fmt.Errorf("movement totals: %w", err)
	}
	return t, nil
}

func (r *RecordRepo) movementsQuery(scope opname.Scope, from, to time.Time) squirrel.SelectBuilder {
	sum := func(k ledger.Kind) string {
		return fmt.Sprintf("COALESCE(SUM(e.quantity) FILTER (WHERE e.kind = '%s'), 0)", k)
	}
	return r.builder.Select(
		sum(ledger.KindReceipt)+" AS total_in",
		sum(ledger.KindIssue)+" AS total_out",
	).
		From("ledger_entries e").
		Join("products p ON p.id = e.product_id").
		Where(scopeWhere(scope)).
		Where(squirrel.GtOrEq{"e.created_at": from}).
		Where(squirrel.Lt{"e.created_at": to})
}

// Upsert inserts or replaces the record for (scope_key, date).
func (r *RecordRepo) Upsert(ctx context.Context, rec *opname.Record) (*opname.Record, error) {
	sql, args, err := r.upsertQuery(rec).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var saved opname.Record
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &saved, sql, args...); err != nil {
		return nil, fmt.Errorf("upsert record: %w", err)
	}
	return &saved, nil
}

func (r *RecordRepo) upsertQuery(rec *opname.Record) squirrel.InsertBuilder {
	return r.builder.Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			rec.ID, rec.ScopeKey, squirrel.Expr("?::date", rec.DateString()),
			rec.SystemStock, rec.PhysicalStock, rec.Difference,
			rec.TotalIn, rec.TotalOut, rec.Note, rec.ActorID, rec.CreatedAt, rec.UpdatedAt,
		).
		Suffix(`ON CONFLICT (scope_key, date) DO UPDATE SET
			system_stock = EXCLUDED.system_stock,
			physical_stock = EXCLUDED.physical_stock,
			difference = EXCLUDED.difference,
			total_in = EXCLUDED.total_in,
			total_out = EXCLUDED.total_out,
			note = EXCLUDED.note,
			actor_id = EXCLUDED.actor_id,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(recordColumns, ", "))
}

// Get returns the record for scopeKey on date.
func (r *RecordRepo) Get(ctx context.Context, scopeKey string, date time.Time) (*opname.Record, error) {
	sql, args, err := r.builder.Select(recordColumns...).
		From(recordsTable).
		Where(squirrel.Eq{"scope_key": scopeKey}).
		Where(squirrel.Expr("date = ?::date", date.Format(opname.DateLayout))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec opname.Record
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reconciliation record", scopeKey+"@"+date.Format(opname.DateLayout))
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

// List returns records newest date first.
func (r *RecordRepo) List(ctx context.Context, f opname.ListFilter) ([]opname.Record, error) {
	sql, args, err := r.listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []opname.Record
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	return items, nil
}

func (r *RecordRepo) listQuery(f opname.ListFilter) squirrel.SelectBuilder {
	q := r.builder.Select(recordColumns...).
		From(recordsTable).
		OrderBy("date DESC", "scope_key")
	if f.ScopeKey != nil {
		q = q.Where(squirrel.Eq{"scope_key": *f.ScopeKey})
	}
	if f.From != nil {
		q = q.Where(squirrel.Expr("date >= ?::date", f.From.Format(opname.DateLayout)))
	}
	if f.To != nil {
		q = q.Where(squirrel.Expr("date <= ?::date", f.To.Format(opname.DateLayout)))
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

// Delete removes a record.
func (r *RecordRepo) Delete(ctx context.Context, recordID id.ID) error {
	sql, args, err := r.builder.Delete(recordsTable).Where(squirrel.Eq{"id": recordID}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("reconciliation record", recordID.String())
	}
	return nil
}
