package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter bulk-loads rows with the COPY protocol.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice copies rows into table. It must run inside a transaction.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, errors.New("CopyFromSlice requires transaction context")
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// CopyStructs copies items into table using their db tags, restricted
// to columns.
func CopyStructs[T any](ctx context.Context, b *BatchInserter, table string, columns []string, items []T) (int64, error) {
	rows := make([][]any, 0, len(items))
	for i := range items {
		m := StructToMap(items[i])
		row := make([]any, len(columns))
		for j, col := range columns {
			v, ok := m[col]
			if !ok {
				return 0, fmt.Errorf("column %s has no matching field", col)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return b.CopyFromSlice(ctx, table, columns, rows)
}
