package ledger

import (
	"math"

	"stockledger/internal/core/apperror"
)

// ToPieces normalises a box + loose piece count into pieces:
// total = boxes*perBox + pieces.
func ToPieces(boxes, pieces, perBox int64) (int64, error) {
	if perBox < 1 {
		return 0, apperror.NewValidation("pieces per box must be at least 1").WithDetail("field", "pieces_per_box")
	}
	if boxes < 0 || pieces < 0 {
		return 0, apperror.NewValidation("box and piece counts must not be negative").WithDetail("field", "boxes")
	}
	if boxes > (math.MaxInt64-pieces)/perBox {
		return 0, apperror.NewValidation("quantity too large").WithDetail("field", "boxes")
	}
	return boxes*perBox + pieces, nil
}

// Split is the inverse of ToPieces: boxes*perBox + remainder == total
// with 0 <= remainder < perBox. perBox below 1 is treated as 1.
func Split(total, perBox int64) (boxes, remainder int64) {
	if perBox < 1 {
		perBox = 1
	}
	if total <= 0 {
		return 0, 0
	}
	return total / perBox, total % perBox
}
