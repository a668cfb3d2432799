package catalog_repo

import (
	"context"

	"stockledger/internal/domain/catalog"
	"stockledger/internal/infrastructure/storage/postgres"
)

var brandColumns = []string{"id", "name", "pieces_per_box"}

// Importer bulk-loads catalog master data with COPY. Calls must run inside
// a transaction.
type Importer struct {
	batch *postgres.BatchInserter
}

func NewImporter(txManager *postgres.TxManager) *Importer {
	return &Importer{batch: postgres.NewBatchInserter(txManager)}
}

// Brands copies brands and returns the number of rows written.
func (i *Importer) Brands(ctx context.Context, brands []catalog.Brand) (int64, error) {
	return postgres.CopyStructs(ctx, i.batch, "brands", brandColumns, brands)
}

// Products copies products with their opening stock.
func (i *Importer) Products(ctx context.Context, products []catalog.Product) (int64, error) {
	return postgres.CopyStructs(ctx, i.batch, productsTable, productColumns, products)
}
