// Package reports provides read-only aggregates over the ledger and catalog.
package reports

import (
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// DailyTotals are the RECEIPT and ISSUE sums of one calendar day.
type DailyTotals struct {
	Date     string `json:"date"`
	TotalIn  int64  `json:"total_in"`
	TotalOut int64  `json:"total_out"`
}

// MonthlySalesItem aggregates one product's movements in a month.
type MonthlySalesItem struct {
	ProductID        id.ID  `db:"product_id" json:"product_id"`
	ProductName      string `db:"product_name" json:"product_name"`
	Brand            string `db:"brand" json:"brand"`
	Type             string `db:"type" json:"type"`
	TypeNumber       string `db:"type_number" json:"type_number"`
	Color            string `db:"color" json:"color"`
	TotalQtyOut      int64  `db:"total_qty_out" json:"total_qty_out"`
	TotalQtyIn       int64  `db:"total_qty_in" json:"total_qty_in"`
	TransactionCount int64  `db:"transaction_count" json:"transaction_count"`
}

// MonthlySalesReport lists products by issued quantity, highest first.
type MonthlySalesReport struct {
	Month    string             `json:"month"`
	Items    []MonthlySalesItem `json:"items"`
	TotalOut int64              `json:"total_out"`
	TotalIn  int64              `json:"total_in"`
}

// StockSummary aggregates active products.
type StockSummary struct {
	ProductCount    int64       `db:"product_count"`
	TotalStock      int64       `db:"total_stock"`
	LowStockCount   int64       `db:"low_stock_count"`
	TotalAssetValue types.Money `db:"total_asset_value"`
}

// Dashboard is the landing-page summary. AssetValue is nil when the
// caller may not see prices.
type Dashboard struct {
	ProductCount  int64        `json:"product_count"`
	TotalStock    int64        `json:"total_stock"`
	LowStockCount int64        `json:"low_stock_count"`
	AssetValue    *types.Money `json:"total_asset_value,omitempty"`
	Today         DailyTotals  `json:"today"`
	EntryCount    int64        `json:"entry_count"`
}
