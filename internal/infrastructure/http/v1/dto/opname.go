package dto

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/opname"
)

// SaveCountRequest saves a physical count for a scope. Date defaults to today.
type SaveCountRequest struct {
	Scope         string `json:"scope" binding:"required"`
	PhysicalStock *int64 `json:"physical_stock" binding:"required"`
	Date          string `json:"date"`
	Note          string `json:"note" binding:"max=500"`
}

// PreviewQuery computes a difference without saving.
type PreviewQuery struct {
	Scope    string `form:"scope" binding:"required"`
	Physical *int64 `form:"physical" binding:"required"`
}

// RecordListQuery filters saved counts.
type RecordListQuery struct {
	Scope string `form:"scope"`
	From  string `form:"from"`
	To    string `form:"to"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}

// RecordResponse is a saved count.
type RecordResponse struct {
	ID            id.ID     `json:"id"`
	Scope         string    `json:"scope"`
	Date          string    `json:"date"`
	SystemStock   int64     `json:"system_stock"`
	PhysicalStock int64     `json:"physical_stock"`
	Difference    int64     `json:"difference"`
	TotalIn       int64     `json:"total_in"`
	TotalOut      int64     `json:"total_out"`
	Note          string    `json:"note"`
	ActorID       id.ID     `json:"actor_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func FromRecord(r *opname.Record) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		Scope:         r.ScopeKey,
		Date:          r.DateString(),
		SystemStock:   r.SystemStock,
		PhysicalStock: r.PhysicalStock,
		Difference:    r.Difference,
		TotalIn:       r.TotalIn,
		TotalOut:      r.TotalOut,
		Note:          r.Note,
		ActorID:       r.ActorID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func FromRecords(items []opname.Record) []RecordResponse {
	out := make([]RecordResponse, len(items))
	for i := range items {
		out[i] = FromRecord(&items[i])
	}
	return out
}
