package entities

import (
	"errors"
	"fmt"

	"github.com/govalues/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrForbidden     = errors.New("requester is not allowed to perform this operation")
	ErrInvalidStatus = errors.New("status is not a valid order status")

	ErrMissingRequester = errors.New("requester is required")
	ErrEmptyItems       = errors.New("order must contain at least one item")
	ErrInvalidTotal     = errors.New("order total must be greater than zero")
)

// LineItemError reports the first malformed line item, with its 1-based
// position in the submitted list.
type LineItemError struct {
	Index  int
	Reason string
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("invalid item at position %d: %s", e.Index, e.Reason)
}

// TotalMismatchError is returned when the submitted total disagrees
// with the computed sum of line totals beyond TotalTolerance.
type TotalMismatchError struct {
	Expected decimal.Decimal
	Got      decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("order total mismatch: expected %s, got %s", e.Expected, e.Got)
}
