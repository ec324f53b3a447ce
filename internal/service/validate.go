package service

import (
	"github.com/govalues/decimal"
	"github.com/shopengine/order-service/internal/entities"
)

// NewOrderItem is the canonical shape of a submitted line item. Field
// aliasing from callers is resolved at the HTTP boundary; by the time a
// value reaches the validator it either conforms or fails.
type NewOrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// ValidatedOrder is the outcome of a successful validation: normalized
// lines and the total recomputed from them.
type ValidatedOrder struct {
	Lines           []entities.OrderLine
	CalculatedTotal decimal.Decimal
}

// ValidateOrder checks a proposed order and reconciles the submitted
// total against the sum of line totals. It is pure: no I/O, no side
// effects.
func ValidateOrder(requesterID string, items []NewOrderItem, submittedTotal decimal.Decimal) (ValidatedOrder, error) {
	if requesterID == "" {
		return ValidatedOrder{}, entities.ErrMissingRequester
	}
	if len(items) == 0 {
		return ValidatedOrder{}, entities.ErrEmptyItems
	}
	if submittedTotal.Cmp(decimal.Zero) <= 0 {
		return ValidatedOrder{}, entities.ErrInvalidTotal
	}

	lines := make([]entities.OrderLine, 0, len(items))
	calculated := decimal.Zero

	for i, item := range items {
		if item.ProductID == "" {
			return ValidatedOrder{}, &entities.LineItemError{Index: i + 1, Reason: "product id is required"}
		}
		if item.Quantity <= 0 {
			return ValidatedOrder{}, &entities.LineItemError{Index: i + 1, Reason: "quantity must be greater than zero"}
		}
		if item.UnitPrice.Cmp(decimal.Zero) <= 0 {
			return ValidatedOrder{}, &entities.LineItemError{Index: i + 1, Reason: "unit price must be greater than zero"}
		}

		quantity := decimal.MustNew(int64(item.Quantity), 0)
		lineTotal, err := item.UnitPrice.Mul(quantity)
		if err != nil {
			return ValidatedOrder{}, &entities.LineItemError{Index: i + 1, Reason: "line total overflows"}
		}
		calculated, err = calculated.Add(lineTotal)
		if err != nil {
			return ValidatedOrder{}, &entities.LineItemError{Index: i + 1, Reason: "order total overflows"}
		}

		lines = append(lines, entities.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	diff, err := calculated.Sub(submittedTotal)
	if err != nil {
		return ValidatedOrder{}, entities.ErrInvalidTotal
	}
	if diff.Abs().Cmp(entities.TotalTolerance) > 0 {
		return ValidatedOrder{}, &entities.TotalMismatchError{Expected: calculated, Got: submittedTotal}
	}

	return ValidatedOrder{Lines: lines, CalculatedTotal: calculated}, nil
}
