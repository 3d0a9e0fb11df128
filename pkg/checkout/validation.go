package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	// MinLineQuantity and MaxLineQuantity bound one order line.
	MinLineQuantity = 1
	MaxLineQuantity = 99
)

// LineInput is a requested (product, quantity) pair.
type LineInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
}

// LineViolationDetail exposes the data returned to callers when a line fails.
type LineViolationDetail struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
}

// NormalizeLines validates requested lines and merges duplicate products,
// preserving first-seen order. Merged quantities are re-checked against the
// line maximum.
func NormalizeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var violations []LineViolationDetail
	merged := make([]LineInput, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		switch {
		case line.ProductID == uuid.Nil:
			violations = append(violations, LineViolationDetail{Quantity: line.Quantity, Reason: "product id is required"})
			continue
		case line.Quantity < MinLineQuantity || line.Quantity > MaxLineQuantity:
			violations = append(violations, LineViolationDetail{ProductID: line.ProductID, Quantity: line.Quantity, Reason: "quantity must be between 1 and 99"})
			continue
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	for _, line := range merged {
		if line.Quantity > MaxLineQuantity {
			violations = append(violations, LineViolationDetail{ProductID: line.ProductID, Quantity: line.Quantity, Reason: "combined quantity exceeds 99"})
		}
	}

	if len(violations) == 0 {
		return merged, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d invalid order line(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}

// ProductIDs returns the ids of normalized lines.
func ProductIDs(lines []LineInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
