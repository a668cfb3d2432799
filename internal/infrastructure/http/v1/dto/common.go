// Package dto holds the JSON shapes of the HTTP API.
package dto

import (
	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/ledger"
)

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ItemsResponse wraps an unpaged list.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

// NewItems never renders a null list.
func NewItems[T any](items []T) ItemsResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ItemsResponse[T]{Items: items}
}

// Units is a count given either in pieces or as boxes plus loose pieces.
type Units struct {
	Boxes  *int64 `json:"boxes"`
	Pieces *int64 `json:"pieces"`
}

// HasBoxes reports whether the box form was used.
func (u Units) HasBoxes() bool {
	return u.Boxes != nil || u.Pieces != nil
}

// Total resolves the count in pieces. pieces is the plain form; exactly one
// of pieces and the box form must be present.
func (u Units) Total(field string, pieces *int64, perBox int64) (int64, error) {
	switch {
	case pieces != nil && u.HasBoxes():
		return 0, apperror.NewValidation("give either " + field + " or boxes and pieces, not both").
			WithDetail("field", field)
	case pieces != nil:
		return *pieces, nil
	case u.HasBoxes():
		var boxes, loose int64
		if u.Boxes != nil {
			boxes = *u.Boxes
		}
		if u.Pieces != nil {
			loose = *u.Pieces
		}
		return ledger.ToPieces(boxes, loose, perBox)
	}
	return 0, apperror.NewValidation(field + " is required").WithDetail("field", field)
}

// BoxSplit presents a piece count as whole boxes and a remainder.
type BoxSplit struct {
	Boxes     int64 `json:"boxes"`
	Remainder int64 `json:"remainder"`
}

// NewBoxSplit splits total by perBox.
func NewBoxSplit(total, perBox int64) BoxSplit {
	b, r := ledger.Split(total, perBox)
	return BoxSplit{Boxes: b, Remainder: r}
}
