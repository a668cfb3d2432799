package dto

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
)

// MovementRequest records a receipt or an issue. The amount is either
// quantity or boxes plus pieces.
type MovementRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  *int64 `json:"quantity"`
	Units
	Note string `json:"note" binding:"max=500"`
}

// AdjustmentRequest records a physical count for one product.
type AdjustmentRequest struct {
	ProductID     string `json:"product_id" binding:"required,uuid"`
	PhysicalCount *int64 `json:"physical_count"`
	Units
	Note string `json:"note" binding:"max=500"`
}

// CheckIssueQuery asks whether an issue would succeed.
type CheckIssueQuery struct {
	ProductID string `form:"product_id" binding:"required,uuid"`
	Quantity  int64  `form:"quantity" binding:"required"`
}

// CheckIssueResponse is returned when the issue is possible.
type CheckIssueResponse struct {
	ProductID id.ID `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Available bool  `json:"available"`
}

// HistoryQuery filters ledger history. Dates are YYYY-MM-DD; to is inclusive.
type HistoryQuery struct {
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	ActorID   string `form:"actor_id" binding:"omitempty,uuid"`
	Kind      string `form:"kind"`
	From      string `form:"from"`
	To        string `form:"to"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// EntryResponse is one ledger entry.
type EntryResponse struct {
	ID          id.ID       `json:"id"`
	ProductID   id.ID       `json:"product_id"`
	ProductName string      `json:"product_name,omitempty"`
	ActorID     id.ID       `json:"actor_id"`
	ActorName   string      `json:"actor_name,omitempty"`
	Kind        ledger.Kind `json:"kind"`
	Quantity    int64       `json:"quantity"`
	StockBefore *int64      `json:"stock_before,omitempty"`
	StockAfter  int64       `json:"stock_after"`
	Note        string      `json:"note"`
	CreatedAt   time.Time   `json:"created_at"`
}

func FromEntry(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		ProductID:   e.ProductID,
		ActorID:     e.ActorID,
		Kind:        e.Kind,
		Quantity:    e.Quantity,
		StockBefore: e.StockBefore,
		StockAfter:  e.StockAfter,
		Note:        e.Note,
		CreatedAt:   e.CreatedAt,
	}
}

func FromEntryViews(items []ledger.EntryView) []EntryResponse {
	out := make([]EntryResponse, len(items))
	for i := range items {
		out[i] = FromEntry(&items[i].Entry)
		out[i].ProductName = items[i].ProductName
		out[i].ActorName = items[i].ActorName
	}
	return out
}
